package ui

import "log/slog"

// Toast is a non-blocking, dismissable notification rendered by the page.
type Toast struct {
	Message     string `json:"message"`
	Type        string `json:"type"`
	Location    string `json:"location"`
	Icon        bool   `json:"icon"`
	Dismissable bool   `json:"dismissable"`
}

// Notifier is the single user-facing failure/success channel. Nothing in the
// orchestration layer reports errors any other way.
type Notifier interface {
	Success(message string)
	Error(message string)
}

type sinkNotifier struct {
	sink   EventSink
	logger *slog.Logger
}

// NewNotifier returns a Notifier that ships toasts through the sink and
// mirrors them to the log.
func NewNotifier(sink EventSink, logger *slog.Logger) Notifier {
	if sink == nil {
		sink = NopSink{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &sinkNotifier{sink: sink, logger: logger}
}

func (n *sinkNotifier) Success(message string) {
	n.logger.Info("toast", slog.String("type", "success"), slog.String("message", message))
	n.sink.Emit("toast", Toast{
		Message:     message,
		Type:        "success",
		Location:    "top-right",
		Icon:        true,
		Dismissable: true,
	})
}

func (n *sinkNotifier) Error(message string) {
	n.logger.Warn("toast", slog.String("type", "error"), slog.String("message", message))
	n.sink.Emit("toast", Toast{
		Message:     message,
		Type:        "error",
		Location:    "top-right",
		Icon:        true,
		Dismissable: true,
	})
}
