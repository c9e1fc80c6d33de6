package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Log является глобальным экземпляром логгера для всего приложения.
var Log = logrus.New()

// Options - параметры логгера (приходят из config.Config).
type Options struct {
	Level  string
	Format string
	Output io.Writer
}

// Init инициализирует глобальный логгер из переменных окружения.
// Вызывается один раз при старте приложения и в TestMain пакетов.
func Init() {
	InitWith(Options{
		Level:  os.Getenv("LOG_LEVEL"),
		Format: os.Getenv("LOG_FORMAT"),
	})
}

// InitWith инициализирует глобальный логгер явными параметрами.
func InitWith(opts Options) {
	Log = logrus.New()

	// 1. Уровень. По умолчанию - "info". Для отладки можно выставить "debug".
	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	Log.SetLevel(level)

	// 2. Форматтер.
	// "json" - для продакшена и сбора логов.
	// "text" - для удобной разработки.
	if strings.ToLower(opts.Format) == "json" {
		Log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		Log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
	}

	// 3. Куда писать.
	if opts.Output != nil {
		Log.SetOutput(opts.Output)
	} else {
		Log.SetOutput(os.Stdout)
	}
}

// Component возвращает entry с полем component - так логирует каждая подсистема.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}
