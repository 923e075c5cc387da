package echoutil

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

func LogHandlerFunc(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		meth := c.Request().Method
		path := c.Request().URL
		BEGIN := time.Now()
		c.Logger().Infof(
			"< request @[%s] %s %s", BEGIN, meth, path,
		)

		var err error

		defer func() {
			END := time.Now()
			c.Logger().Infof(
				"> response @[%s] status = %d, size = %d (for request @[%s] %s %s) in %v / error = %+v",
				END, c.Response().Status, c.Response().Size, BEGIN, meth, path, END.Sub(BEGIN), err,
			)
		}()

		err = next(c)
		return err
	}
}

// ParseLevel converts a name of log level into log.Lvl.
//
// Names are debug, info, warn, error and off, in case insensitive. Empty is warn.
func ParseLevel(loglevel string) (log.Lvl, error) {
	switch strings.ToLower(loglevel) {
	case "debug":
		return log.DEBUG, nil
	case "info":
		return log.INFO, nil
	case "warn", "":
		return log.WARN, nil
	case "error":
		return log.ERROR, nil
	case "off":
		return log.OFF, nil
	default:
		return log.WARN, fmt.Errorf("unknown loglevel: %s", loglevel)
	}
}

// SetLevel sets log level of e. Unknown levels fall back to warn.
func SetLevel(e *echo.Echo, loglevel string) {
	lvl, err := ParseLevel(loglevel)
	e.Logger.SetLevel(lvl)
	if err != nil {
		e.Logger.Warnf("%s . fall-backed to warn", err)
	}
}
