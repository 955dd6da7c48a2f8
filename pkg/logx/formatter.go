package logx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Fields is a set of structured log fields.
type Fields map[string]interface{}

// LogEntry is one log record handed to a Formatter.
type LogEntry struct {
	Level     Level
	Message   string
	Fields    Fields
	Error     error
	Caller    string
	Timestamp time.Time
}

// Formatter renders a LogEntry into bytes.
type Formatter interface {
	Format(entry *LogEntry) ([]byte, error)
}

// ConsoleFormatter renders human-readable, optionally colored lines.
type ConsoleFormatter struct {
	config *Config
}

func NewConsoleFormatter(config *Config) *ConsoleFormatter {
	return &ConsoleFormatter{config: config}
}

var levelColors = map[Level]string{
	LevelTrace: "\033[37m",
	LevelDebug: "\033[36m",
	LevelInfo:  "\033[32m",
	LevelWarn:  "\033[33m",
	LevelError: "\033[31m",
	LevelFatal: "\033[35m",
}

const colorReset = "\033[0m"

func (f *ConsoleFormatter) Format(entry *LogEntry) ([]byte, error) {
	var buf bytes.Buffer

	if f.config.EnableTimestamp {
		buf.WriteString(entry.Timestamp.Format(f.config.TimeFormat))
		buf.WriteByte(' ')
	}

	level := entry.Level.String()
	if f.config.EnableColors {
		buf.WriteString(levelColors[entry.Level] + level + colorReset)
	} else {
		buf.WriteString(level)
	}
	buf.WriteByte(' ')

	if entry.Caller != "" {
		buf.WriteString(entry.Caller)
		buf.WriteByte(' ')
	}

	buf.WriteString(entry.Message)

	if len(entry.Fields) > 0 {
		keys := make([]string, 0, len(entry.Fields))
		for k := range entry.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&buf, " %s=%v", k, entry.Fields[k])
		}
	}

	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

// JSONFormatter renders one JSON object per line.
type JSONFormatter struct {
	config *Config
}

func NewJSONFormatter(config *Config) *JSONFormatter {
	return &JSONFormatter{config: config}
}

func (f *JSONFormatter) Format(entry *LogEntry) ([]byte, error) {
	record := make(map[string]interface{}, len(entry.Fields)+4)
	for k, v := range entry.Fields {
		record[k] = v
	}
	record["level"] = entry.Level.String()
	record["message"] = entry.Message
	if f.config.EnableTimestamp {
		record["timestamp"] = entry.Timestamp.Format(f.config.TimeFormat)
	}
	if entry.Caller != "" {
		record["caller"] = entry.Caller
	}
	if entry.Error != nil {
		record["error"] = entry.Error.Error()
	}

	data, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}
