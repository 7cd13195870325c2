// Package concurrency provides the coordination primitives the kvnet
// environment hands to client layers: a bounded, FIFO-fair counting
// Semaphore for admission control and a binary Lock for caller-managed
// critical sections.
//
// Both primitives are context-aware: every blocking call takes a
// context.Context and gives up, without consuming a slot, when the context
// ends. Neither primitive releases on its own; callers must pair every
// successful acquire with a release on all exit paths, typically with
// defer or WithLock.
package concurrency
