package logger

import (
	"io"
	"log"
)

func Null() *log.Logger {
	return log.New(io.Discard, "", log.LstdFlags)
}

func Default() *log.Logger {
	return log.Default()
}

// For creates a logger for a command. Each line is prefixed with "[command] ".
func For(w io.Writer, command string) *log.Logger {
	return log.New(w, "["+command+"] ", log.LstdFlags)
}
