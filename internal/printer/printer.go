package printer

import (
	"time"

	"github.com/slok/duely/internal/liststate"
	"github.com/slok/duely/internal/model"
)

// Printer knows how to print tracker information in different formats.
type Printer interface {
	PrintTasks(tasks []model.Task, today time.Time) error
	PrintTask(task model.Task, today time.Time) error
	PrintProgress(current liststate.Progress, history []model.DailyProgressEntry) error
	PrintMessage(msg string) error
}
