package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/imamik/orchestrator/internal/resource"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
			return tagName(f.Tag.Get("mapstructure"), f.Name)
		})
	})
	return validate
}

// Validate checks the configuration. Failures are returned as
// *resource.ConfigurationError, one per argument group.
func (c *Config) Validate() error {
	var errs []error

	if err := structValidator().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return &resource.ConfigurationError{Reason: "invalid configuration", Err: err}
		}
		for _, fe := range verrs {
			errs = append(errs, &resource.ConfigurationError{
				Kind:   kindOf(fe.Namespace()),
				Reason: describe(fe),
			})
		}
	}

	if c.Cron.CronTime != "" {
		if _, err := c.Cron.Period(); err != nil {
			errs = append(errs, &resource.ConfigurationError{Kind: resource.Cron, Reason: "invalid cron_time", Err: err})
		}
	}

	return errors.Join(errs...)
}

// kindOf maps a validator namespace such as "Config.cron.cron_time" to the
// resource kind owning the field.
func kindOf(namespace string) resource.Type {
	parts := strings.Split(namespace, ".")
	if len(parts) < 2 {
		return ""
	}
	switch parts[1] {
	case "queue":
		return resource.Queue
	case "storage":
		return resource.Storage
	case "alert":
		return resource.Notification
	case "cron":
		return resource.Cron
	}
	return ""
}

func describe(fe validator.FieldError) string {
	field := strings.TrimPrefix(fe.Namespace(), "Config.")
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s], got %q", field, fe.Param(), fe.Value())
	case "url":
		return fmt.Sprintf("%s must be a URL, got %q", field, fe.Value())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %q validation", field, fe.Tag())
}

func tagName(tag, fallback string) string {
	name, _, _ := strings.Cut(tag, ",")
	if name == "" || name == "-" {
		return fallback
	}
	return name
}
