// Package lib provides a Go SDK for managing duely tasks programmatically.
//
// This package allows applications to add, complete and reorder tasks and to
// read the daily progress without shelling out to the duely CLI binary. It
// shares the storage of the CLI, so both can be used on the same data directory
// (though not at the same time).
//
// # Quick Start
//
//	client, err := lib.New(ctx, lib.Config{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	// Add a daily task, it's due today.
//	task, err := client.AddTask(ctx, lib.AddTaskOpts{
//	    Title:          "water plants",
//	    RepetitionRule: lib.RepetitionDaily,
//	})
//
//	// Completing it moves it to tomorrow.
//	outcome, err := client.CompleteTask(ctx, task.ID)
//
// # Persistence
//
// Changes are persisted in the background after a short delay, repeated
// changes in that window are coalesced into a single write. Use
// [Client.Flush] to persist pending changes right away. [Client.Close]
// flushes before releasing the storage.
//
// # Storage
//
//   - [StorageJSON]: JSON files on the data directory (default, same as the CLI).
//   - [StorageSQLite]: SQLite database on the data directory.
//   - [StorageMemory]: Nothing is persisted, useful for tests.
//
// # Error Handling
//
// All methods return errors that can be inspected with [errors.Is]:
//
//   - [ErrNotFound]: Task does not exist.
//   - [ErrAlreadyExists]: Task with the same ID already exists.
//   - [ErrNotValid]: Invalid input.
//
// # Thread Safety
//
// A [Client] is safe for concurrent use from multiple goroutines.
package lib
