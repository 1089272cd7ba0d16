package logging

import (
	"fmt"
	"sort"
	"sync"
)

// LoggerManager хранит файловые логгеры компонентов. Новые логгеры получают
// уровни, заданные через SetDefaultLevels.
type LoggerManager struct {
	mu      sync.RWMutex
	loggers map[string]*Logger

	console LogLevel
	file    LogLevel
}

var (
	globalManager *LoggerManager
	managerOnce   sync.Once
)

func newLoggerManager() *LoggerManager {
	return &LoggerManager{
		loggers: make(map[string]*Logger),
		console: INFO,
		file:    TRACE,
	}
}

// GetLoggerManager возвращает глобальный менеджер логгеров
func GetLoggerManager() *LoggerManager {
	managerOnce.Do(func() { globalManager = newLoggerManager() })
	return globalManager
}

// SetDefaultLevels задаёт уровни для логгеров, созданных после вызова
func (lm *LoggerManager) SetDefaultLevels(console, file LogLevel) {
	lm.mu.Lock()
	lm.console, lm.file = console, file
	lm.mu.Unlock()
}

// GetLogger возвращает логгер компонента, создавая его при первом обращении
func (lm *LoggerManager) GetLogger(component string) (*Logger, error) {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if ok {
		return logger, nil
	}

	lm.mu.Lock()
	defer lm.mu.Unlock()
	if logger, ok := lm.loggers[component]; ok {
		return logger, nil
	}

	logger, err := NewLogger(component)
	if err != nil {
		return nil, fmt.Errorf("логгер %s: %w", component, err)
	}
	logger.SetLevels(lm.console, lm.file)
	lm.loggers[component] = logger
	return logger, nil
}

// MustGetLogger возвращает логгер компонента, а если файл создать не удалось,
// консольный логгер с тем же именем
func (lm *LoggerManager) MustGetLogger(component string) *Logger {
	logger, err := lm.GetLogger(component)
	if err == nil {
		return logger
	}

	lm.mu.RLock()
	defer lm.mu.RUnlock()
	current().Warn("⚠️ %v, пишем только в консоль", err)
	return &Logger{
		component:       component,
		consoleLogger:   current().consoleLogger,
		minConsoleLevel: lm.console,
		minFileLevel:    ERROR + 1,
	}
}

// CloseAll закрывает файлы всех логгеров и забывает их
func (lm *LoggerManager) CloseAll() error {
	lm.mu.Lock()
	defer lm.mu.Unlock()

	var lastErr error
	for component, logger := range lm.loggers {
		if err := logger.Close(); err != nil {
			lastErr = fmt.Errorf("закрытие логгера %s: %w", component, err)
		}
	}
	lm.loggers = make(map[string]*Logger)
	return lastErr
}

// ListComponents имена компонентов по алфавиту
func (lm *LoggerManager) ListComponents() []string {
	lm.mu.RLock()
	defer lm.mu.RUnlock()

	components := make([]string, 0, len(lm.loggers))
	for component := range lm.loggers {
		components = append(components, component)
	}
	sort.Strings(components)
	return components
}

// SetLogLevel меняет уровни уже созданного логгера
func (lm *LoggerManager) SetLogLevel(component string, console, file LogLevel) error {
	lm.mu.RLock()
	logger, ok := lm.loggers[component]
	lm.mu.RUnlock()
	if !ok {
		return fmt.Errorf("логгер %s не найден", component)
	}
	logger.SetLevels(console, file)
	return nil
}

// GetComponentLogger возвращает файловый логгер компонента или консольный fallback
func GetComponentLogger(component string) *Logger {
	return GetLoggerManager().MustGetLogger(component)
}
