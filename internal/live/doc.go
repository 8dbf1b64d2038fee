// Package live drives inspection sessions through their lifecycle and
// feeds captured frames through the detection pipeline.
//
// The Machine serializes lifecycle transitions against frame ingestion per
// session with an in-process lock, while counter updates rely on the
// store's guarded SQL so no increment is ever lost. The detector verdict
// is authoritative; a failed or timed-out detection drops the frame
// without touching any counter.
package live
