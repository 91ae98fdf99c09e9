package graph

import (
	"context"

	"github.com/smallnest/yelpnavigator/log"
)

// StepListener is notified after each node's output has been merged into the
// graph state. The state argument is the post-node snapshot; listeners must
// not mutate it.
type StepListener interface {
	OnGraphStep(ctx context.Context, nodeName string, state any)
}

// StepListenerFunc adapts a function to the StepListener interface.
type StepListenerFunc func(ctx context.Context, nodeName string, state any)

func (f StepListenerFunc) OnGraphStep(ctx context.Context, nodeName string, state any) {
	f(ctx, nodeName, state)
}

// LoggingListener logs every completed step at debug level.
type LoggingListener struct {
	Logger log.Logger
}

func (l *LoggingListener) OnGraphStep(_ context.Context, nodeName string, _ any) {
	logger := l.Logger
	if logger == nil {
		logger = log.GetDefaultLogger()
	}
	logger.Debug("node %s completed", nodeName)
}
