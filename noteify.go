// Package noteify indexes a vault of markdown notes into normalized section
// trees and streams them to connected consumer processes over a local socket.
// Consumers may ask the producer to reveal the source location of a section.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goldmark/, jsonl/, unix/).
package noteify
