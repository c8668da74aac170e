// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks produces the streams shown in the output pane.
//
// A Task is one section of output: a shell command, a followed file, a reader
// such as piped stdin, or a markdown document. Tasks are queued and a Runner
// executes them one at a time, reporting each through a Sink.
//
// # Key Types
//
//   - Task: One unit of streamed output with status tracking
//   - Queue: FIFO of tasks with bounded history
//   - Runner: Sequential executor with per-task timeout and cancellation
//   - Sink: Receiver of started/output/markdown/finished events
//
// # Streaming
//
// Output is read in raw chunks, not lines. Reads that arrive faster than the
// configured frame rate are coalesced, so a chatty command produces at most
// MaxFPS deliveries per second and the UI never falls behind.
//
// # Usage
//
//	queue := tasks.NewQueue(100)
//	runner := tasks.NewRunner(queue, sink, tasks.OptionsFromConfig(cfg.Stream))
//	runner.Submit(tasks.NewCommandTask("go test ./..."))
//	queue.Close()
//	runner.Start(ctx)
//	runner.Wait()
package tasks
