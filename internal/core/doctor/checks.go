package doctor

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/colonyops/marginalia/internal/core/book"
	"github.com/colonyops/marginalia/internal/core/config"
)

// ConfigCheck validates the configuration file.
type ConfigCheck struct {
	cfg  *config.Config
	path string
}

func NewConfigCheck(cfg *config.Config, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, path: path}
}

func (c *ConfigCheck) Name() string { return "Configuration" }

func (c *ConfigCheck) Run(_ context.Context) Result {
	result := Result{Name: c.Name()}

	if _, err := os.Stat(c.path); err != nil {
		result.Items = append(result.Items, CheckItem{
			Label:  "config file",
			Status: StatusWarn,
			Detail: "not found, using defaults (run 'marginalia init')",
		})
	} else {
		result.Items = append(result.Items, CheckItem{Label: "config file", Status: StatusPass, Detail: c.path})
	}

	if err := c.cfg.ValidateDeep(c.path); err != nil {
		result.Items = append(result.Items, CheckItem{Label: "validation", Status: StatusFail, Detail: err.Error()})
	} else {
		result.Items = append(result.Items, CheckItem{Label: "validation", Status: StatusPass})
	}

	for _, w := range c.cfg.Warnings() {
		result.Items = append(result.Items, CheckItem{
			Label:  w.Category + " " + w.Item,
			Status: StatusWarn,
			Detail: w.Message,
		})
	}

	return result
}

// SchemaFunc reports the applied and latest known schema versions.
type SchemaFunc func(ctx context.Context) (current, latest int, err error)

// DatabaseCheck verifies that the local database is migrated.
type DatabaseCheck struct {
	path   string
	schema SchemaFunc
}

func NewDatabaseCheck(path string, schema SchemaFunc) *DatabaseCheck {
	return &DatabaseCheck{path: path, schema: schema}
}

func (c *DatabaseCheck) Name() string { return "Database" }

func (c *DatabaseCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	current, latest, err := c.schema(ctx)
	switch {
	case err != nil:
		result.Items = append(result.Items, CheckItem{Label: "schema", Status: StatusFail, Detail: err.Error()})
	case current < latest:
		result.Items = append(result.Items, CheckItem{
			Label:  "schema",
			Status: StatusWarn,
			Detail: fmt.Sprintf("version %d, latest is %d", current, latest),
		})
	default:
		result.Items = append(result.Items, CheckItem{
			Label:  "schema",
			Status: StatusPass,
			Detail: fmt.Sprintf("version %d", current),
		})
	}

	result.Items = append(result.Items, CheckItem{Label: "location", Status: StatusPass, Detail: c.path})
	return result
}

// BackendCheck pings the backend books are read from.
type BackendCheck struct {
	backend book.Backend
	label   string
	timeout time.Duration
}

func NewBackendCheck(backend book.Backend, label string) *BackendCheck {
	return &BackendCheck{backend: backend, label: label, timeout: 10 * time.Second}
}

func (c *BackendCheck) Name() string { return "Backend" }

func (c *BackendCheck) Run(ctx context.Context) Result {
	result := Result{Name: c.Name()}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	start := time.Now()
	if err := c.backend.Health(ctx); err != nil {
		result.Items = append(result.Items, CheckItem{Label: c.label, Status: StatusFail, Detail: err.Error()})
		return result
	}
	result.Items = append(result.Items, CheckItem{
		Label:  c.label,
		Status: StatusPass,
		Detail: fmt.Sprintf("healthy (%s)", time.Since(start).Round(time.Millisecond)),
	})

	books, err := c.backend.Books(ctx)
	if err != nil {
		result.Items = append(result.Items, CheckItem{Label: "books", Status: StatusWarn, Detail: err.Error()})
		return result
	}

	ready := 0
	for _, b := range books {
		if b.Status == book.StatusCompleted {
			ready++
		}
	}
	status := StatusPass
	if len(books) == 0 {
		status = StatusWarn
	}
	result.Items = append(result.Items, CheckItem{
		Label:  "books",
		Status: status,
		Detail: fmt.Sprintf("%d found, %d ready", len(books), ready),
	})
	return result
}
