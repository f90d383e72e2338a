// Package notify holds the decision and formatting core of the reminder
// pipeline: given tasks, a user registry and a notification schedule, it
// decides whether a run is due and produces ready-to-send email payloads.
//
// Everything in this package is a pure function over its inputs. Loading
// tasks, sending mail and persisting the last-sent date are the caller's
// job (see internal/runner).
package notify
