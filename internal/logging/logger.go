package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

// LogLevel определяет уровни логирования
type LogLevel int

const (
	TRACE LogLevel = iota
	DEBUG
	INFO
	WARN
	ERROR
)

// String возвращает строковое представление уровня логирования
func (l LogLevel) String() string {
	switch l {
	case TRACE:
		return "TRACE"
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func (l LogLevel) logrus() logrus.Level {
	switch l {
	case TRACE:
		return logrus.TraceLevel
	case DEBUG:
		return logrus.DebugLevel
	case WARN:
		return logrus.WarnLevel
	case ERROR:
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}

// ParseLevel разбирает уровень из конфигурации ("debug", "INFO", ...).
func ParseLevel(s string) (LogLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRACE":
		return TRACE, nil
	case "DEBUG":
		return DEBUG, nil
	case "", "INFO":
		return INFO, nil
	case "WARN", "WARNING":
		return WARN, nil
	case "ERROR":
		return ERROR, nil
	default:
		return INFO, fmt.Errorf("неизвестный уровень логирования: %q", s)
	}
}

// Config - настройки корневого логгера.
type Config struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"` // пусто - только консоль
}

// Logger - логгер компонента поверх общего logrus.Logger.
type Logger struct {
	component string
	entry     *logrus.Entry
	minLevel  LogLevel
}

var (
	rootMu   sync.Mutex
	root     = newRoot(os.Stdout)
	rootFile *os.File
	rootMin  = INFO

	defaultLogger = &Logger{component: "main", entry: root.WithField("component", "main"), minLevel: INFO}
)

func newRoot(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.TraceLevel) // фильтрация по уровню - в Logger
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	return l
}

// Init настраивает корневой логгер: уровень и, при необходимости, файл.
func Init(cfg Config) error {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return err
	}

	rootMu.Lock()
	defer rootMu.Unlock()

	out := io.Writer(os.Stdout)
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0755); err != nil {
			return fmt.Errorf("ошибка создания директории логов: %w", err)
		}
		file, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
		if err != nil {
			return fmt.Errorf("ошибка создания файла логов: %w", err)
		}
		if rootFile != nil {
			rootFile.Close()
		}
		rootFile = file
		out = io.MultiWriter(os.Stdout, file)
	}

	root.SetOutput(out)
	rootMin = level
	defaultLogger.minLevel = level
	return nil
}

// InitDefaultLogger настраивает логгер по умолчанию для компонента.
func InitDefaultLogger(component string) error {
	if err := Init(Config{Level: os.Getenv("MCWORLD_LOG_LEVEL")}); err != nil {
		return err
	}
	defaultLogger = mustLogger(component)
	return nil
}

// CloseDefaultLogger закрывает файл логов, если он открыт.
func CloseDefaultLogger() {
	rootMu.Lock()
	defer rootMu.Unlock()

	if rootFile != nil {
		root.SetOutput(os.Stdout)
		rootFile.Close()
		rootFile = nil
	}
}

// SetOutput перенаправляет вывод всех логгеров (используется в тестах).
func SetOutput(w io.Writer) {
	rootMu.Lock()
	defer rootMu.Unlock()
	root.SetOutput(w)
}

// NewLogger создаёт логгер компонента с текущим уровнем по умолчанию.
func NewLogger(component string) (*Logger, error) {
	if component == "" {
		return nil, fmt.Errorf("пустое имя компонента")
	}
	return mustLogger(component), nil
}

func mustLogger(component string) *Logger {
	rootMu.Lock()
	defer rootMu.Unlock()
	return &Logger{
		component: component,
		entry:     root.WithField("component", component),
		minLevel:  rootMin,
	}
}

// Component возвращает имя компонента.
func (l *Logger) Component() string {
	return l.component
}

// Enabled сообщает, будет ли записано сообщение уровня level.
func (l *Logger) Enabled(level LogLevel) bool {
	return level >= l.minLevel
}

func (l *Logger) log(level LogLevel, format string, args ...interface{}) {
	if !l.Enabled(level) {
		return
	}
	l.entry.Logf(level.logrus(), format, args...)
}

// Trace логирует сообщение уровня TRACE
func (l *Logger) Trace(format string, args ...interface{}) { l.log(TRACE, format, args...) }

// Debug логирует сообщение уровня DEBUG
func (l *Logger) Debug(format string, args ...interface{}) { l.log(DEBUG, format, args...) }

// Info логирует сообщение уровня INFO
func (l *Logger) Info(format string, args ...interface{}) { l.log(INFO, format, args...) }

// Warn логирует сообщение уровня WARN
func (l *Logger) Warn(format string, args ...interface{}) { l.log(WARN, format, args...) }

// Error логирует сообщение уровня ERROR
func (l *Logger) Error(format string, args ...interface{}) { l.log(ERROR, format, args...) }

// Close ничего не делает: файл принадлежит корневому логгеру.
func (l *Logger) Close() error { return nil }

func Trace(format string, args ...interface{}) { defaultLogger.Trace(format, args...) }
func Debug(format string, args ...interface{}) { defaultLogger.Debug(format, args...) }
func Info(format string, args ...interface{})  { defaultLogger.Info(format, args...) }
func Warn(format string, args ...interface{})  { defaultLogger.Warn(format, args...) }
func Error(format string, args ...interface{}) { defaultLogger.Error(format, args...) }
