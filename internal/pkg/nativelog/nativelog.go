// Package nativelog builds the service logger: console lines on stdout mirrored
// into one file per day.
package nativelog

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	EnvLogDir  = "AUTHCORE_LOG_DIR"
	filePerm   = 0o644
	dirPerm    = 0o755
	dayLayout  = "1-2-06"
	timeLayout = "2006-01-02 15:04:05.000"
	filePrefix = "stdout_"
	fileSuffix = ".log"
)

// ResolveDir returns AUTHCORE_LOG_DIR when set, otherwise configured, otherwise ./logs.
func ResolveDir(configured string) string {
	if dir := strings.TrimSpace(os.Getenv(EnvLogDir)); dir != "" {
		return dir
	}
	if dir := strings.TrimSpace(configured); dir != "" {
		return dir
	}
	return filepath.Join(".", "logs")
}

// TodayFilename is the log file name for the day containing now.
func TodayFilename(now time.Time) string {
	return filePrefix + now.Format(dayLayout) + fileSuffix
}

// DailyFile is a zapcore.WriteSyncer that switches files at midnight.
type DailyFile struct {
	mu   sync.Mutex
	dir  string
	now  func() time.Time
	day  string
	file *os.File
}

// OpenDailyFile creates dir if needed. The first file is opened on the first write.
func OpenDailyFile(dir string) (*DailyFile, error) {
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return nil, err
	}
	return &DailyFile{dir: dir, now: time.Now}, nil
}

func (d *DailyFile) Write(p []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if err := d.rollLocked(); err != nil {
		return 0, err
	}
	return d.file.Write(p)
}

func (d *DailyFile) rollLocked() error {
	name := TodayFilename(d.now())
	if d.file != nil && name == d.day {
		return nil
	}
	f, err := os.OpenFile(filepath.Join(d.dir, name), os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePerm)
	if err != nil {
		return err
	}
	if d.file != nil {
		_ = d.file.Close()
	}
	d.file, d.day = f, name
	return nil
}

func (d *DailyFile) Sync() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	return d.file.Sync()
}

func (d *DailyFile) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.file == nil {
		return nil
	}
	err := d.file.Close()
	d.file, d.day = nil, ""
	return err
}

// NewZapLogger tees console-encoded entries to stdout and the daily file in dir.
func NewZapLogger(dir string, debug bool) (*zap.Logger, error) {
	file, err := OpenDailyFile(dir)
	if err != nil {
		return nil, err
	}

	level := zapcore.InfoLevel
	if debug {
		level = zapcore.DebugLevel
	}
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	plain := encCfg
	if debug {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(zapcore.NewConsoleEncoder(plain), file, level),
	)
	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	zap.RedirectStdLog(logger)
	return logger, nil
}
