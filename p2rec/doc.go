// Package p2rec reads and writes .p2rec recording files.
//
// A .p2rec file captures a timestamped byte stream (typically serial-line
// traffic) as a fixed 64-byte header, a JSON metadata blob, and a tight
// stream of records:
//   - header: magic "P2RC", u32 version, u64 start timestamp, u32 metadata length
//   - metadata: UTF-8 JSON of the declared length
//   - records: [u32 deltaMs][u8 type][u32 length][length bytes payload], repeated
//
// All multi-byte integers are little-endian. Each record's deltaMs is the
// offset from the previous record; Decode normalizes these to cumulative
// offsets from the start of the recording. A record cut short by an unclean
// shutdown is dropped silently so the file stays playable up to its last
// complete entry.
//
// Entries can be written incrementally as they are received; the writer does
// not buffer them in memory. Because metadata precedes the record stream it
// must be supplied when the writer is created.
package p2rec
