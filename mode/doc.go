// Package mode binds the kernel mode setting (KMS) ioctls: resources,
// connectors, encoders, CRTCs, planes, framebuffers, properties, atomic
// commits and dumb buffers.
//
// Calls that return arrays take each destination as an optional *[]T.
// A nil pointer skips that array; otherwise the slice is grown as needed
// and its length set to the number of elements the kernel reported.
// When every destination is nil a single ioctl is issued and only the
// counts are returned. Arrays are re-read until the kernel reports the
// same counts twice in a row, so a hotplug between the two ioctls never
// truncates a result.
package mode
