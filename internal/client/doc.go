// Package client is the API client and session workflow used by ECG Health IQ
// front ends.
//
// # Overview
//
// A Client is built from one explicit Config and exposes six components:
//  1. AuthClient: register, login, refresh, reset-password and logout for
//     patients and doctors.
//  2. SessionStore: the encrypted-at-rest session (FileStore) or an in-memory
//     one (MemoryStore).
//  3. ECGRecordClient: paginated record views, classification, deletion,
//     waveform rendering and manual signal entry.
//  4. ConsultationClient: consultation requests, listings and doctor replies.
//  5. DirectoryClient: doctor directory, profiles, profile images and history.
//  6. IngestClient: CSV uploads and the remote device trigger.
//
// # Error Handling
//
// Failures are typed and matched with errors.As: ValidationError, AuthError,
// ConflictError, NotFoundError, NetworkError, ServerError, DeviceTimeoutError,
// DeviceError, ClassificationError, UploadError and PersistError. Nothing is
// retried; every error is returned once.
//
// # Concurrency and Contexts
//
// All components are safe for concurrent use. Every operation accepts a
// context.Context; backend calls are additionally bounded by Config.Timeout
// and the device trigger by Config.DeviceTimeout. Identical concurrent
// submissions share one in-flight request.
package client
