package lifecycle

import "fmt"

// Strategy selects how game state survives between run calls. It is chosen
// once when the manager is built and never changes per call.
type Strategy uint8

const (
	// StrategyStatic keeps state in memory for the life of the instance.
	StrategyStatic Strategy = iota
	// StrategyHotReload round-trips state through the host store on every
	// call so it survives the module being replaced.
	StrategyHotReload
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategyStatic:
		return "static"
	case StrategyHotReload:
		return "hot_reload"
	default:
		return fmt.Sprintf("strategy(%d)", uint8(s))
	}
}

// ParseStrategy parses a strategy name as produced by String.
func ParseStrategy(s string) (Strategy, error) {
	switch s {
	case "static", "":
		return StrategyStatic, nil
	case "hot_reload", "hot-reload", "hotreload":
		return StrategyHotReload, nil
	default:
		return 0, fmt.Errorf("unknown lifecycle strategy %q", s)
	}
}

// StrategyFor maps the hot reload switch to a Strategy.
func StrategyFor(hotReload bool) Strategy {
	if hotReload {
		return StrategyHotReload
	}
	return StrategyStatic
}
