package printer

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/slok/duely/internal/liststate"
	"github.com/slok/duely/internal/model"
)

const swatch = "●"

// TablePrinter prints tracker information in a table format.
type TablePrinter struct {
	writer   io.Writer
	renderer *lipgloss.Renderer
	color    bool
}

// NewTablePrinter creates a new table printer. Colors are only rendered when
// enabled and the writer supports them.
func NewTablePrinter(w io.Writer, color bool) *TablePrinter {
	return &TablePrinter{
		writer:   w,
		renderer: lipgloss.NewRenderer(w),
		color:    color,
	}
}

// PrintTasks prints tasks in a table format.
func (t *TablePrinter) PrintTasks(tasks []model.Task, today time.Time) error {
	if len(tasks) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "#\tID\tTITLE\tSCHEDULE\tDUE")

	// Print rows.
	for _, task := range tasks {
		fmt.Fprintf(tw, "%s %d\t%s\t%s\t%s\t%s\n",
			t.paint(swatch, task.DisplayColor),
			task.Order,
			task.ID,
			task.Title,
			FormatSchedule(task),
			t.due(task, today),
		)
	}

	return nil
}

// PrintTask prints detailed task information.
func (t *TablePrinter) PrintTask(task model.Task, today time.Time) error {
	fmt.Fprintf(t.writer, "Title:      %s\n", task.Title)
	fmt.Fprintf(t.writer, "ID:         %s\n", task.ID)
	fmt.Fprintf(t.writer, "Position:   %d\n", task.Order)
	fmt.Fprintf(t.writer, "Schedule:   %s\n", FormatSchedule(task))

	if task.DueDate != nil {
		fmt.Fprintf(t.writer, "Due:        %s, %s\n", FormatDate(*task.DueDate), DueIn(*task.DueDate, today))
	}

	fmt.Fprintf(t.writer, "Color:      %s %s\n", t.paint(swatch, task.DisplayColor), HexColor(task.DisplayColor))

	return nil
}

// PrintProgress prints the current progress and its daily history.
func (t *TablePrinter) PrintProgress(current liststate.Progress, history []model.DailyProgressEntry) error {
	fmt.Fprintf(t.writer, "Not due today: %s\n\n", t.paint(fmt.Sprintf("%.1f%%", current.Percent()), current.Color))

	if len(history) == 0 {
		return nil
	}

	tw := tabwriter.NewWriter(t.writer, 0, 0, 2, ' ', 0)
	defer tw.Flush()

	// Print header.
	fmt.Fprintln(tw, "DATE\tNOT DUE")

	// Print rows.
	for _, e := range history {
		c := liststate.GradientColor(e.PercentCompleted / 100)
		fmt.Fprintf(tw, "%s\t%s\n", FormatDate(e.Date), t.paint(fmt.Sprintf("%5.1f%%", e.PercentCompleted), c))
	}

	return nil
}

// PrintMessage prints a simple text message.
func (t *TablePrinter) PrintMessage(msg string) error {
	fmt.Fprintln(t.writer, msg)
	return nil
}

func (t *TablePrinter) due(task model.Task, today time.Time) string {
	if task.DueDate == nil {
		return "-"
	}

	due := fmt.Sprintf("%s (%s)", task.DueDate.Format(model.DateLayout), DueIn(*task.DueDate, today))
	if task.IsDueOn(today) {
		return t.renderer.NewStyle().Bold(t.color).Render(due)
	}
	return due
}

func (t *TablePrinter) paint(s string, c model.Color) string {
	if !t.color {
		return s
	}
	return t.renderer.NewStyle().Foreground(lipgloss.Color(HexColor(c))).Render(s)
}
