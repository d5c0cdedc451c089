package tracker

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/slok/duely/internal/clock"
	"github.com/slok/duely/internal/debounce"
	"github.com/slok/duely/internal/liststate"
	"github.com/slok/duely/internal/log"
	"github.com/slok/duely/internal/model"
	"github.com/slok/duely/internal/recurrence"
	"github.com/slok/duely/internal/storage"
)

// ServiceConfig is the configuration for the tracker service.
type ServiceConfig struct {
	TaskRepository     storage.TaskRepository
	ProgressRepository storage.ProgressRepository
	// Settings are the user settings, unset fields use the defaults.
	Settings model.Settings
	Clock    clock.Clock
	// Listener receives a notification per successful mutation. Optional.
	Listener Listener
	// IDGenerator returns new task IDs, defaults to ULIDs.
	IDGenerator func() string
	Logger      log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.TaskRepository == nil {
		return fmt.Errorf("task repository is required")
	}

	if c.ProgressRepository == nil {
		return fmt.Errorf("progress repository is required")
	}

	c.Settings = c.Settings.WithDefaults()
	if err := c.Settings.Validate(); err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	if c.Clock == nil {
		c.Clock = clock.Real{}
	}

	if c.Listener == nil {
		c.Listener = ListenerFunc(func(Event) {})
	}

	if c.IDGenerator == nil {
		clk := c.Clock
		c.IDGenerator = func() string {
			return ulid.MustNew(ulid.Timestamp(clk.Now()), rand.Reader).String()
		}
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Tracker"})

	return nil
}

// Service owns the ordered task list and the progress history. Every mutation
// recomputes the derived list state, records today's progress and schedules
// both collections to be persisted.
//
// It's safe for concurrent use.
type Service struct {
	settings model.Settings
	clock    clock.Clock
	listener Listener
	newID    func() string
	logger   log.Logger

	progressRepo  storage.ProgressRepository
	tasksSaver    *saver[[]model.Task]
	progressSaver *saver[[]model.DailyProgressEntry]

	mu       sync.Mutex
	tasks    []model.Task
	entries  []model.DailyProgressEntry
	progress liststate.Progress
}

// NewService loads the stored tasks and progress, catches up stale repeating
// tasks and returns a ready service.
func NewService(ctx context.Context, cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	tasksStore, err := debounce.NewStore(debounce.StoreConfig[[]model.Task]{
		Name:   "tasks",
		Delay:  cfg.Settings.TaskSaveDelay,
		Write:  cfg.TaskRepository.SaveTasks,
		Clone:  cloneTasks,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create tasks store: %w", err)
	}

	progressStore, err := debounce.NewStore(debounce.StoreConfig[[]model.DailyProgressEntry]{
		Name:   "progress",
		Delay:  cfg.Settings.ProgressSaveDelay,
		Write:  cfg.ProgressRepository.SaveProgress,
		Clone:  cloneEntries,
		Logger: cfg.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("could not create progress store: %w", err)
	}

	s := &Service{
		settings:      cfg.Settings,
		clock:         cfg.Clock,
		listener:      cfg.Listener,
		newID:         cfg.IDGenerator,
		logger:        cfg.Logger,
		progressRepo:  cfg.ProgressRepository,
		tasksSaver:    &saver[[]model.Task]{store: tasksStore},
		progressSaver: &saver[[]model.DailyProgressEntry]{store: progressStore},
	}

	if err := s.load(ctx, cfg.TaskRepository); err != nil {
		return nil, err
	}

	return s, nil
}

func (s *Service) load(ctx context.Context, taskRepo storage.TaskRepository) error {
	tasks, err := taskRepo.LoadTasks(ctx)
	if err != nil {
		return fmt.Errorf("could not load tasks: %w", err)
	}

	entries, err := s.progressRepo.LoadProgress(ctx)
	if err != nil {
		return fmt.Errorf("could not load progress: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	today := s.today()
	s.tasks = cloneTasks(tasks)
	s.entries = cloneEntries(entries)

	// IDs must be unique, later copies of an ID get a new one.
	renewed := 0
	seen := make(map[string]bool, len(s.tasks))
	for i := range s.tasks {
		if seen[s.tasks[i].ID] {
			old := s.tasks[i].ID
			s.tasks[i].ID = s.newID()
			s.logger.Warningf("Duplicated task ID %s, renewed as %s", old, s.tasks[i].ID)
			renewed++
		}
		seen[s.tasks[i].ID] = true
	}

	corrected := 0
	for i := range s.tasks {
		if recurrence.CatchUpOnLoad(&s.tasks[i], today) {
			corrected++
		}
	}
	if corrected > 0 {
		s.logger.Infof("%d stale repeating tasks caught up to %s", corrected, today.Format(model.DateLayout))
	}

	// Stored orders may have gaps, the load order is the authoritative one.
	reordered := liststate.AssignOrderAndIndex(s.tasks)
	liststate.Recompute(s.tasks)
	s.progress = liststate.AggregateProgress(s.tasks, today)

	if renewed > 0 || corrected > 0 || reordered > 0 {
		s.tasksSaver.request(s.tasks)
	}
	if s.recordProgress(today) {
		s.progressSaver.request(s.entries)
	}

	s.logger.Debugf("Loaded %d tasks and %d progress entries", len(s.tasks), len(s.entries))
	return nil
}

// AddRequest are the fields of a new task.
type AddRequest struct {
	Title             string
	TimeType          model.TimeType
	DueDate           *time.Time
	RepetitionRule    *model.RepetitionRule
	RepetitionWeekday *time.Weekday
}

// Add appends a new task at the end of the list.
func (s *Service) Add(ctx context.Context, req AddRequest) (model.Task, error) {
	t := model.Task{
		Title:             req.Title,
		TimeType:          req.TimeType,
		DueDate:           req.DueDate,
		RepetitionRule:    req.RepetitionRule,
		RepetitionWeekday: req.RepetitionWeekday,
	}
	t = t.Clone()
	if t.TimeType == "" {
		t.TimeType = model.TimeTypeNone
	}

	s.mu.Lock()
	today := s.today()
	t.ID = s.newID()
	t.Order = len(s.tasks)
	s.normalize(&t, today)
	if err := t.Validate(); err != nil {
		s.mu.Unlock()
		return model.Task{}, fmt.Errorf("invalid task: %w", err)
	}

	s.tasks = append(s.tasks, t)
	ev := s.commit(MutationAdd, t.ID, today)
	added := s.tasks[len(s.tasks)-1].Clone()
	s.mu.Unlock()

	s.listener.OnChange(ev)
	s.logger.Debugf("Task %s added", t.ID)
	return added, nil
}

// Update replaces the user editable fields of an existing task. The position in
// the list is kept.
func (s *Service) Update(ctx context.Context, t model.Task) (model.Task, error) {
	t = t.Clone()

	s.mu.Lock()
	i, err := s.indexOf(t.ID)
	if err != nil {
		s.mu.Unlock()
		return model.Task{}, err
	}

	today := s.today()
	t.Order = s.tasks[i].Order
	t.DisplayColor = s.tasks[i].DisplayColor
	s.normalize(&t, today)
	validate := t.Validate
	if stored := s.tasks[i].RepetitionRule; stored != nil && !stored.Valid() && t.HasRule(*stored) {
		// A stored rule this version doesn't know stays editable, it falls back when scheduling.
		validate = t.ValidateStored
	}
	if err := validate(); err != nil {
		s.mu.Unlock()
		return model.Task{}, fmt.Errorf("invalid task: %w", err)
	}

	s.tasks[i] = t
	ev := s.commit(MutationUpdate, t.ID, today)
	updated := s.tasks[i].Clone()
	s.mu.Unlock()

	s.listener.OnChange(ev)
	return updated, nil
}

// Delete removes a task from the list.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i, err := s.indexOf(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	ev := s.commit(MutationDelete, id, s.today())
	s.mu.Unlock()

	s.listener.OnChange(ev)
	s.logger.Debugf("Task %s deleted", id)
	return nil
}

// MarkDone completes a task. Repeating tasks move to their next occurrence, the
// rest are removed from the list.
func (s *Service) MarkDone(ctx context.Context, id string) (recurrence.Outcome, error) {
	s.mu.Lock()
	i, err := s.indexOf(id)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}

	today := s.today()
	outcome := recurrence.OutcomeRemoved
	if s.tasks[i].IsRepeating() {
		outcome = recurrence.AdvanceOnCompletion(&s.tasks[i], today)
	}
	if outcome == recurrence.OutcomeRemoved {
		s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	}

	ev := s.commit(MutationDone, id, today)
	s.mu.Unlock()

	s.listener.OnChange(ev)
	s.logger.Debugf("Task %s done: %s", id, outcome)
	return outcome, nil
}

// ResetDaily pulls a daily task due tomorrow back to today. It returns false when
// the task is not eligible, in that case nothing changes.
func (s *Service) ResetDaily(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	i, err := s.indexOf(id)
	if err != nil {
		s.mu.Unlock()
		return false, err
	}

	today := s.today()
	if !recurrence.ResetIfEligibleForTomorrowDaily(&s.tasks[i], today) {
		s.mu.Unlock()
		return false, nil
	}

	ev := s.commit(MutationReset, id, today)
	s.mu.Unlock()

	s.listener.OnChange(ev)
	return true, nil
}

// Move moves a task to a new position. Out of range positions are clamped to the
// list bounds.
func (s *Service) Move(ctx context.Context, id string, position int) error {
	s.mu.Lock()
	i, err := s.indexOf(id)
	if err != nil {
		s.mu.Unlock()
		return err
	}

	position = max(0, min(position, len(s.tasks)-1))
	t := s.tasks[i]
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.tasks = append(s.tasks[:position], append([]model.Task{t}, s.tasks[position:]...)...)

	ev := s.commit(MutationMove, id, s.today())
	s.mu.Unlock()

	s.listener.OnChange(ev)
	return nil
}

// ImportRequest are the tasks to import.
type ImportRequest struct {
	Tasks []model.Task
	// Replace drops the current list instead of appending to it.
	Replace bool
}

// Import adds a batch of tasks keeping their relative order. Tasks without ID or
// with an ID already in use get a new one. Either all tasks are imported or none.
func (s *Service) Import(ctx context.Context, req ImportRequest) (int, error) {
	s.mu.Lock()
	today := s.today()

	current := s.tasks
	if req.Replace {
		current = nil
	}

	used := map[string]bool{}
	for _, t := range current {
		used[t.ID] = true
	}

	imported := make([]model.Task, 0, len(req.Tasks))
	for _, t := range req.Tasks {
		t = t.Clone()
		if t.ID == "" || used[t.ID] {
			t.ID = s.newID()
		}
		used[t.ID] = true

		// Imported tasks are checked like stored ones.
		t.DropStrayRepetition()
		s.normalize(&t, today)
		recurrence.CatchUpOnLoad(&t, today)
		t.Order = 0
		if err := t.ValidateStored(); err != nil {
			s.mu.Unlock()
			return 0, fmt.Errorf("invalid task %q: %w", t.Title, err)
		}
		imported = append(imported, t)
	}

	s.tasks = append(cloneTasks(current), imported...)
	ev := s.commit(MutationImport, "", today)
	s.mu.Unlock()

	s.listener.OnChange(ev)
	s.logger.Infof("%d tasks imported", len(imported))
	return len(imported), nil
}

// Task returns a task by ID.
func (s *Service) Task(id string) (model.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexOf(id)
	if err != nil {
		return model.Task{}, err
	}
	return s.tasks[i].Clone(), nil
}

// Tasks returns the task list in its authoritative order.
func (s *Service) Tasks() []model.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneTasks(s.tasks)
}

// View returns the task list sorted as the settings select. It never changes the
// authoritative order.
func (s *Service) View() []model.Task {
	tasks := s.Tasks()
	if s.settings.SortOrder != model.SortOrderDueDate {
		return tasks
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		a, b := tasks[i].DueDate, tasks[j].DueDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.Before(*b)
	})
	return tasks
}

// Progress returns the current aggregate progress of the list.
func (s *Service) Progress() liststate.Progress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// ProgressHistory returns the daily progress entries ordered by date.
func (s *Service) ProgressHistory() []model.DailyProgressEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneEntries(s.entries)
}

// ClearProgress deletes the whole progress history.
func (s *Service) ClearProgress(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Drain pending and in flight writes so none lands after the clear.
	if err := s.progressSaver.store.Flush(ctx); err != nil {
		s.logger.Warningf("Could not flush progress before clearing: %s", err)
	}
	s.progressSaver.dropped = false

	if err := s.progressRepo.ClearProgress(ctx); err != nil {
		return fmt.Errorf("could not clear progress: %w", err)
	}
	s.entries = []model.DailyProgressEntry{}

	s.logger.Infof("Progress history cleared")
	return nil
}

// Today returns the current calendar date in the configured location.
func (s *Service) Today() time.Time {
	return s.today()
}

// Settings returns the settings the service runs with.
func (s *Service) Settings() model.Settings {
	return s.settings
}

// Flush writes right away every pending change of tasks and progress.
func (s *Service) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	if err := s.tasksSaver.flush(ctx, s.tasks); err != nil {
		errs = append(errs, fmt.Errorf("could not flush tasks: %w", err))
	}
	if err := s.progressSaver.flush(ctx, s.entries); err != nil {
		errs = append(errs, fmt.Errorf("could not flush progress: %w", err))
	}

	return errors.Join(errs...)
}

// commit runs the recompute cycle after a mutation and schedules the saves. It
// must be called with the lock held.
func (s *Service) commit(m Mutation, taskID string, today time.Time) Event {
	changes := liststate.Recompute(s.tasks)
	s.progress = liststate.AggregateProgress(s.tasks, today)
	s.recordProgress(today)

	s.tasksSaver.request(s.tasks)
	s.progressSaver.request(s.entries)

	return Event{
		Mutation: m,
		TaskID:   taskID,
		Changes:  changes,
		Progress: s.progress,
	}
}

// recordProgress upserts today's progress entry, returns true if it changed.
func (s *Service) recordProgress(today time.Time) bool {
	e := model.DailyProgressEntry{Date: today, PercentCompleted: s.progress.Percent()}
	for _, current := range s.entries {
		if model.SameDate(current.Date, today) && current.PercentCompleted == e.PercentCompleted {
			return false
		}
	}
	s.entries = model.UpsertProgress(s.entries, e)
	return true
}

// normalize sets due dates to midnight and gives repeating tasks without due date
// their first occurrence.
func (s *Service) normalize(t *model.Task, today time.Time) {
	if t.DueDate != nil {
		d := model.DateOf(t.DueDate.In(s.settings.Location))
		t.DueDate = &d
	}

	if t.TimeType != model.TimeTypeRepeating {
		t.RepetitionRule = nil
		t.RepetitionWeekday = nil
		if t.TimeType == model.TimeTypeNone {
			t.DueDate = nil
		}
		return
	}

	if t.RepetitionWeekday != nil && !t.HasRule(model.RepetitionWeekly) {
		t.RepetitionWeekday = nil
	}

	if t.DueDate == nil && t.RepetitionRule != nil {
		first := today
		if t.HasRule(model.RepetitionWeekly) && t.RepetitionWeekday != nil {
			first = recurrence.NextWeekdayOnOrAfter(today, *t.RepetitionWeekday)
		}
		t.DueDate = &first
	}
}

func (s *Service) indexOf(id string) (int, error) {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
}

func (s *Service) today() time.Time {
	return model.DateOf(s.clock.Now().In(s.settings.Location))
}

func cloneTasks(tasks []model.Task) []model.Task {
	c := make([]model.Task, 0, len(tasks))
	for _, t := range tasks {
		c = append(c, t.Clone())
	}
	return c
}

func cloneEntries(entries []model.DailyProgressEntry) []model.DailyProgressEntry {
	return append([]model.DailyProgressEntry{}, entries...)
}
