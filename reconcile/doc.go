// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package reconcile stores parsed messages as submissions.

The identity key is (observer, form, reporting period). For each request:

  - always_create forms get a new submission every time
  - otherwise no match creates, one match is merged into, and several
    matches merge into the earliest created (logged as a warning)
  - merging overwrites tags present in the request and leaves the rest

Comments go to a submission_note row plus Submission.Comment for note-mode
forms, or to the reserved data key for field-mode forms.

Requests sharing a key are serialized with a keylock.Locker, and storage
conflicts are retried with exponential backoff until ErrRetriesExhausted.
*/
package reconcile
