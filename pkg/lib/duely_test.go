package lib_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slok/duely/pkg/lib"
)

var (
	// Friday.
	testNow   = time.Date(2026, 10, 16, 10, 30, 0, 0, time.UTC)
	testToday = time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
)

func testSettings() *lib.Settings {
	return &lib.Settings{
		Location:          time.UTC,
		SortOrder:         lib.SortOrderManual,
		TaskSaveDelay:     time.Hour,
		ProgressSaveDelay: 2 * time.Hour,
	}
}

// newTestClient creates a client on a temp data dir for test isolation.
func newTestClient(t *testing.T, storage lib.StorageType, dataDir string) *lib.Client {
	t.Helper()

	client, err := lib.New(context.Background(), lib.Config{
		DataDir:  dataDir,
		Storage:  storage,
		Settings: testSettings(),
		Now:      func() time.Time { return testNow },
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = client.Close()
	})

	return client
}

func ptr[T any](v T) *T { return &v }

func TestNew(t *testing.T) {
	tests := map[string]struct {
		cfg   lib.Config
		expIs error
	}{
		"A memory client should be created.": {
			cfg: lib.Config{Storage: lib.StorageMemory},
		},

		"An unknown storage should fail.": {
			cfg:   lib.Config{Storage: "postgres"},
			expIs: lib.ErrNotValid,
		},

		"Partial settings should use the defaults on the unset fields.": {
			cfg: lib.Config{
				Storage:  lib.StorageMemory,
				Settings: &lib.Settings{Location: time.UTC},
			},
		},

		"Invalid settings should fail.": {
			cfg: lib.Config{
				Storage: lib.StorageMemory,
				Settings: &lib.Settings{
					Location:          time.UTC,
					SortOrder:         lib.SortOrderManual,
					TaskSaveDelay:     time.Second,
					ProgressSaveDelay: time.Millisecond,
				},
			},
			expIs: lib.ErrNotValid,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			test.cfg.DataDir = t.TempDir()
			client, err := lib.New(context.Background(), test.cfg)

			if test.expIs != nil {
				assert.True(t, errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, client.Close())
		})
	}
}

func TestAddTask(t *testing.T) {
	tests := map[string]struct {
		opts    lib.AddTaskOpts
		expTask lib.Task
		expIs   error
	}{
		"A task without schedule should have no date.": {
			opts: lib.AddTaskOpts{Title: "read"},
			expTask: lib.Task{
				Title:    "read",
				TimeType: lib.TimeTypeNone,
			},
		},

		"A task with a due date should be a specific date task.": {
			opts: lib.AddTaskOpts{Title: "pay rent", DueDate: ptr(time.Date(2026, 11, 1, 15, 0, 0, 0, time.UTC))},
			expTask: lib.Task{
				Title:    "pay rent",
				TimeType: lib.TimeTypeSpecificDate,
				DueDate:  ptr(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)),
			},
		},

		"A daily task without due date should be due today.": {
			opts: lib.AddTaskOpts{Title: "water plants", RepetitionRule: lib.RepetitionDaily},
			expTask: lib.Task{
				Title:          "water plants",
				TimeType:       lib.TimeTypeRepeating,
				RepetitionRule: lib.RepetitionDaily,
				DueDate:        ptr(testToday),
			},
		},

		"A weekly task on a weekday should be due on its next occurrence.": {
			opts: lib.AddTaskOpts{Title: "stretch", RepetitionRule: lib.RepetitionWeekly, RepetitionWeekday: ptr(time.Monday)},
			expTask: lib.Task{
				Title:             "stretch",
				TimeType:          lib.TimeTypeRepeating,
				RepetitionRule:    lib.RepetitionWeekly,
				RepetitionWeekday: ptr(time.Monday),
				DueDate:           ptr(time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)),
			},
		},

		"A task without title should fail.": {
			opts:  lib.AddTaskOpts{},
			expIs: lib.ErrNotValid,
		},

		"A weekday on a daily task should be ignored.": {
			opts: lib.AddTaskOpts{Title: "x", RepetitionRule: lib.RepetitionDaily, RepetitionWeekday: ptr(time.Monday)},
			expTask: lib.Task{
				Title:          "x",
				TimeType:       lib.TimeTypeRepeating,
				RepetitionRule: lib.RepetitionDaily,
				DueDate:        ptr(testToday),
			},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			client := newTestClient(t, lib.StorageMemory, t.TempDir())

			task, err := client.AddTask(context.Background(), test.opts)

			if test.expIs != nil {
				assert.True(errors.Is(err, test.expIs), "expected error %v, got: %v", test.expIs, err)
				return
			}
			require.NoError(err)
			assert.NotEmpty(task.ID)

			// Single task is the first position.
			test.expTask.ID = task.ID
			test.expTask.Color = lib.Color{R: 1}
			assert.Equal(test.expTask, *task)
		})
	}
}

func TestTaskLifecycle(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	var changes []lib.Change
	client, err := lib.New(ctx, lib.Config{
		DataDir:  t.TempDir(),
		Storage:  lib.StorageMemory,
		Settings: testSettings(),
		Now:      func() time.Time { return testNow },
		OnChange: func(c lib.Change) { changes = append(changes, c) },
	})
	require.NoError(err)
	defer client.Close()

	daily, err := client.AddTask(ctx, lib.AddTaskOpts{Title: "water plants", RepetitionRule: lib.RepetitionDaily})
	require.NoError(err)
	oneOff, err := client.AddTask(ctx, lib.AddTaskOpts{Title: "read"})
	require.NoError(err)

	// Colors go from red on the top to green on the bottom.
	tasks, err := client.ListTasks(ctx)
	require.NoError(err)
	require.Len(tasks, 2)
	assert.Equal("#ff0000", tasks[0].Color.Hex())
	assert.Equal("#00ff00", tasks[1].Color.Hex())

	// The daily task is due today.
	assert.Equal(50.0, client.Progress(ctx).Percent)

	// Completing the daily task moves it to tomorrow.
	outcome, err := client.CompleteTask(ctx, daily.ID)
	require.NoError(err)
	assert.Equal(lib.CompletionRescheduled, outcome)
	got, err := client.GetTask(ctx, daily.ID)
	require.NoError(err)
	assert.Equal(time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC), *got.DueDate)
	assert.Equal(100.0, client.Progress(ctx).Percent)

	// Resetting brings it back to today.
	ok, err := client.ResetTask(ctx, daily.ID)
	require.NoError(err)
	assert.True(ok)
	ok, err = client.ResetTask(ctx, daily.ID)
	require.NoError(err)
	assert.False(ok)

	// Moving the one-off task to the top.
	require.NoError(client.MoveTask(ctx, oneOff.ID, 0))
	tasks, err = client.ListTasks(ctx)
	require.NoError(err)
	assert.Equal([]string{oneOff.ID, daily.ID}, []string{tasks[0].ID, tasks[1].ID})
	assert.Equal(0, tasks[0].Order)
	assert.Equal(1, tasks[1].Order)

	// Completing a one-off task removes it.
	outcome, err = client.CompleteTask(ctx, oneOff.ID)
	require.NoError(err)
	assert.Equal(lib.CompletionRemoved, outcome)
	_, err = client.GetTask(ctx, oneOff.ID)
	assert.True(errors.Is(err, lib.ErrNotFound))

	// Title update keeps the schedule.
	updated, err := client.UpdateTask(ctx, daily.ID, lib.UpdateTaskOpts{Title: ptr("water all plants")})
	require.NoError(err)
	assert.Equal("water all plants", updated.Title)
	assert.Equal(lib.RepetitionDaily, updated.RepetitionRule)

	// Clearing the schedule.
	updated, err = client.UpdateTask(ctx, daily.ID, lib.UpdateTaskOpts{ClearSchedule: true})
	require.NoError(err)
	assert.Equal(lib.TimeTypeNone, updated.TimeType)
	assert.Nil(updated.DueDate)

	require.NoError(client.RemoveTask(ctx, daily.ID))
	assert.True(errors.Is(client.RemoveTask(ctx, daily.ID), lib.ErrNotFound))

	// One progress entry for today, updated on every change.
	history, err := client.ProgressHistory(ctx)
	require.NoError(err)
	require.Len(history, 1)
	assert.Equal(testToday, history[0].Date)
	assert.Equal(100.0, history[0].Percent)

	require.NoError(client.ClearProgress(ctx))
	history, err = client.ProgressHistory(ctx)
	require.NoError(err)
	assert.Empty(history)

	// A change notification per mutation.
	kinds := []lib.ChangeKind{}
	for _, c := range changes {
		kinds = append(kinds, c.Kind)
	}
	exp := []lib.ChangeKind{
		lib.ChangeAdd, lib.ChangeAdd, lib.ChangeDone, lib.ChangeReset, lib.ChangeMove,
		lib.ChangeDone, lib.ChangeUpdate, lib.ChangeUpdate, lib.ChangeRemove,
	}
	assert.Equal(exp, kinds)
}

func TestPersistence(t *testing.T) {
	for _, storage := range []lib.StorageType{lib.StorageJSON, lib.StorageSQLite} {
		t.Run(string(storage), func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)
			ctx := context.Background()
			dataDir := t.TempDir()

			client, err := lib.New(ctx, lib.Config{
				DataDir:  dataDir,
				Storage:  storage,
				Settings: testSettings(),
				Now:      func() time.Time { return testNow },
			})
			require.NoError(err)
			_, err = client.AddTask(ctx, lib.AddTaskOpts{Title: "read"})
			require.NoError(err)
			_, err = client.AddTask(ctx, lib.AddTaskOpts{Title: "water plants", RepetitionRule: lib.RepetitionAlternateDay})
			require.NoError(err)

			// Save delays are long, close persists the pending changes.
			require.NoError(client.Close())

			// Two days later the alternate day task is due again.
			reopened, err := lib.New(ctx, lib.Config{
				DataDir:  dataDir,
				Storage:  storage,
				Settings: testSettings(),
				Now:      func() time.Time { return testNow.AddDate(0, 0, 3) },
			})
			require.NoError(err)
			defer reopened.Close()

			tasks, err := reopened.ListTasks(ctx)
			require.NoError(err)
			require.Len(tasks, 2)
			assert.Equal("read", tasks[0].Title)
			assert.Equal("water plants", tasks[1].Title)
			assert.Equal(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC), *tasks[1].DueDate)

			history, err := reopened.ProgressHistory(ctx)
			require.NoError(err)
			assert.Len(history, 2)
		})
	}
}

func TestExportImport(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	src := newTestClient(t, lib.StorageMemory, t.TempDir())
	_, err := src.AddTask(ctx, lib.AddTaskOpts{Title: "read"})
	require.NoError(err)
	_, err = src.AddTask(ctx, lib.AddTaskOpts{Title: "stretch", RepetitionRule: lib.RepetitionWeekly, RepetitionWeekday: ptr(time.Monday)})
	require.NoError(err)

	var buf bytes.Buffer
	require.NoError(src.ExportTasks(ctx, &buf))

	dst := newTestClient(t, lib.StorageMemory, t.TempDir())
	_, err = dst.AddTask(ctx, lib.AddTaskOpts{Title: "existing"})
	require.NoError(err)

	n, err := dst.ImportTasks(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(err)
	assert.Equal(2, n)

	srcTasks, err := src.ListTasks(ctx)
	require.NoError(err)
	dstTasks, err := dst.ListTasks(ctx)
	require.NoError(err)
	require.Len(dstTasks, 3)
	assert.Equal("existing", dstTasks[0].Title)
	for i, st := range srcTasks {
		dt := dstTasks[i+1]
		assert.Equal(st.ID, dt.ID)
		assert.Equal(st.Title, dt.Title)
		assert.Equal(st.DueDate, dt.DueDate)
		assert.Equal(st.RepetitionWeekday, dt.RepetitionWeekday)
		assert.Equal(i+1, dt.Order)
	}

	// Importing the same tasks again renews the IDs.
	n, err = dst.ImportTasks(ctx, bytes.NewReader(buf.Bytes()), false)
	require.NoError(err)
	assert.Equal(2, n)
	dstTasks, err = dst.ListTasks(ctx)
	require.NoError(err)
	require.Len(dstTasks, 5)
	assert.NotEqual(dstTasks[1].ID, dstTasks[3].ID)

	// Replace drops the current tasks.
	n, err = dst.ImportTasks(ctx, bytes.NewReader(buf.Bytes()), true)
	require.NoError(err)
	assert.Equal(2, n)
	dstTasks, err = dst.ListTasks(ctx)
	require.NoError(err)
	assert.Len(dstTasks, 2)

	// Malformed input fails without changes.
	_, err = dst.ImportTasks(ctx, bytes.NewReader([]byte("{")), false)
	assert.Error(err)
	dstTasks, err = dst.ListTasks(ctx)
	require.NoError(err)
	assert.Len(dstTasks, 2)
}

func TestListTasksSortedByDueDate(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	settings := testSettings()
	settings.SortOrder = lib.SortOrderDueDate
	client, err := lib.New(ctx, lib.Config{
		DataDir:  t.TempDir(),
		Storage:  lib.StorageMemory,
		Settings: settings,
		Now:      func() time.Time { return testNow },
	})
	require.NoError(err)
	defer client.Close()

	_, err = client.AddTask(ctx, lib.AddTaskOpts{Title: "undated"})
	require.NoError(err)
	_, err = client.AddTask(ctx, lib.AddTaskOpts{Title: "later", DueDate: ptr(time.Date(2026, 12, 1, 0, 0, 0, 0, time.UTC))})
	require.NoError(err)
	_, err = client.AddTask(ctx, lib.AddTaskOpts{Title: "sooner", DueDate: ptr(time.Date(2026, 10, 20, 0, 0, 0, 0, time.UTC))})
	require.NoError(err)

	tasks, err := client.ListTasks(ctx)
	require.NoError(err)
	titles := []string{}
	for _, task := range tasks {
		titles = append(titles, task.Title)
	}
	assert.Equal([]string{"sooner", "later", "undated"}, titles)

	// Stored order is not affected.
	assert.Equal(2, tasks[0].Order)
}
