// Package service declares the device-facing telemetry resources. Replies are
// transport independent; the CoAP binding maps them onto response codes.
package service

import (
	"context"
	"fmt"
)

type Code int

const (
	Created Code = iota + 1
	Valid
	Changed
	Content
	BadRequest
	NotFound
	MethodNotAllowed
	InternalError
)

func (c Code) String() string {
	switch c {
	case Created:
		return "Created"
	case Valid:
		return "Valid"
	case Changed:
		return "Changed"
	case Content:
		return "Content"
	case BadRequest:
		return "BadRequest"
	case NotFound:
		return "NotFound"
	case MethodNotAllowed:
		return "MethodNotAllowed"
	case InternalError:
		return "InternalServerError"
	default:
		return fmt.Sprintf("Code(%d)", int(c))
	}
}

// Success reports whether the code is in the 2.xx class.
func (c Code) Success() bool { return c >= Created && c <= Content }

type Format int

const (
	TextPlain Format = iota
	AppJSON
)

type Reply struct {
	Code   Code
	Format Format
	Body   []byte
}

func Text(code Code, body string) Reply {
	return Reply{Code: code, Format: TextPlain, Body: []byte(body)}
}

// Partition selects how in-flight cell reports are keyed.
type Partition string

const (
	// PartitionShared keeps one accumulator for every device.
	PartitionShared Partition = "shared"
	// PartitionSource keeps one accumulator per originating address.
	PartitionSource Partition = "source"
)

func ParsePartition(raw string) (Partition, error) {
	switch Partition(raw) {
	case "", PartitionShared:
		return PartitionShared, nil
	case PartitionSource:
		return PartitionSource, nil
	}
	return "", fmt.Errorf("unknown save partition %q (want shared or source)", raw)
}

// RequiredKeys gate persistence of an accumulated cell report.
var RequiredKeys = []string{"npk", "ph", "moisture", "temp", "seed_type", "row", "col", "field_id"}

type TelemetryService interface {
	// Register records the sender address under the plain-text device name.
	Register(ctx context.Context, payload []byte, source string) Reply
	// Discover resolves {"name": ...} to {"<name>": "<address>"}.
	Discover(ctx context.Context, payload []byte) Reply
	// Save merges a report fragment and persists the cell once complete.
	Save(ctx context.Context, payload []byte, source string) Reply
}
