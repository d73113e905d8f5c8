// Package cmd wires the shared pieces the binaries assemble at startup.
package cmd

import (
	"log/slog"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/redis/go-redis/v9"

	"github.com/stepflow/stepflow/pkg/actions/custom"
	"github.com/stepflow/stepflow/pkg/actions/email"
	log_action "github.com/stepflow/stepflow/pkg/actions/log"
	"github.com/stepflow/stepflow/pkg/actions/moderation"
	"github.com/stepflow/stepflow/pkg/actions/notification"
	"github.com/stepflow/stepflow/pkg/actions/userupdate"
	"github.com/stepflow/stepflow/pkg/actions/webhook"
	"github.com/stepflow/stepflow/pkg/channels/gochannel"
	"github.com/stepflow/stepflow/pkg/engine"
	"github.com/stepflow/stepflow/pkg/eventbus"
	"github.com/stepflow/stepflow/pkg/persistence"
	"github.com/stepflow/stepflow/pkg/persistence/file"
	"github.com/stepflow/stepflow/pkg/registry"
)

// NewRegistry returns a registry with every built-in action installed.
// Extra custom handlers can be passed for execute_custom_action wiring.
func NewRegistry(logger *slog.Logger, customHandlers map[string]custom.Handler) *registry.Registry {
	reg := registry.NewRegistry(logger)

	reg.RegisterAction(email.NewActionFactory())
	reg.RegisterAction(notification.NewActionFactory())
	reg.RegisterAction(userupdate.NewActionFactory())
	reg.RegisterAction(moderation.NewActionFactory())
	reg.RegisterAction(webhook.NewActionFactory())
	reg.RegisterAction(log_action.NewActionFactory())

	for id, handler := range customHandlers {
		reg.RegisterAction(custom.NewActionFactory(id, handler))
	}

	return reg
}

// NewEngine assembles an engine with the built-in actions and the
// log-backed escalation notifier.
func NewEngine(logger *slog.Logger, store engine.ExecutionStore) *engine.Engine {
	reg := NewRegistry(logger, nil)
	notifier := notification.NewNotifier(logger)

	return engine.New(logger, reg, store, notifier)
}

// NewEventBus returns the in-process watermill bus.
func NewEventBus() eventbus.EventBus {
	pub, sub := gochannel.CreateChannel(watermill.NopLogger{})

	return eventbus.NewWatermillEventBus(pub, sub)
}

// NewExecutionStore picks the execution store from a URL: redis:// selects
// the Redis-backed store, anything else the in-memory one.
func NewExecutionStore(storeURL string) (engine.ExecutionStore, error) {
	if strings.HasPrefix(storeURL, "redis://") {
		opts, err := redis.ParseURL(storeURL)
		if err != nil {
			return nil, err
		}

		return engine.NewRedisStore(redis.NewClient(opts), 24*time.Hour), nil
	}

	return engine.NewMemoryStore(), nil
}

// NewTemplateRepository opens the file-backed template store.
func NewTemplateRepository(templatesPath string) (persistence.TemplateRepository, error) {
	return file.NewRepository(templatesPath)
}
