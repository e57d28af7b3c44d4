package styles

import (
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/evanw/esbuild/pkg/api"

	ferrors "git.home.luguber.info/inful/themebuilder/internal/foundation/errors"
)

// DefaultBrowsers is the target support matrix for vendor prefixing.
var DefaultBrowsers = []string{
	"last 2 versions",
	"safari 5",
	"ie 7",
	"ie 8",
	"ie 9",
	"opera 12.1",
	"ios 6",
	"android 4",
}

// releases is a pinned snapshot of recent major releases, newest first,
// used to resolve "last N versions". Pinning keeps output reproducible.
var releases = map[api.EngineName][]string{
	api.EngineChrome:  {"130", "129", "128"},
	api.EngineEdge:    {"130", "129", "128"},
	api.EngineFirefox: {"132", "131", "130"},
	api.EngineSafari:  {"18.1", "18.0", "17.6"},
	api.EngineIOS:     {"18.1", "18.0", "17.6"},
	api.EngineOpera:   {"114", "113", "112"},
	api.EngineIE:      {"11", "10", "9"},
}

var browserAliases = map[string]api.EngineName{
	"chrome":   api.EngineChrome,
	"edge":     api.EngineEdge,
	"firefox":  api.EngineFirefox,
	"ff":       api.EngineFirefox,
	"safari":   api.EngineSafari,
	"ios":      api.EngineIOS,
	"ios_saf":  api.EngineIOS,
	"opera":    api.EngineOpera,
	"ie":       api.EngineIE,
	"explorer": api.EngineIE,
}

// Stock Android browsers before 5 map onto the Chrome engine version they
// roughly match; from 5 on the Android version is the Chrome version.
var androidToChrome = map[string]string{
	"4":   "18",
	"4.1": "18",
	"4.2": "18",
	"4.3": "18",
	"4.4": "30",
}

var lastVersionsRe = regexp.MustCompile(`^last\s+(\d+)\s+versions?$`)

// ParseBrowsers resolves browserslist-style queries into esbuild engine
// targets, keeping the lowest version seen for each engine.
func ParseBrowsers(queries []string) ([]api.Engine, error) {
	lowest := map[api.EngineName]string{}
	add := func(name api.EngineName, version string) {
		if cur, ok := lowest[name]; !ok || compareVersions(version, cur) < 0 {
			lowest[name] = version
		}
	}

	for _, raw := range queries {
		q := strings.ToLower(strings.TrimSpace(raw))
		if q == "" {
			continue
		}
		if m := lastVersionsRe.FindStringSubmatch(q); m != nil {
			n, _ := strconv.Atoi(m[1])
			if n < 1 {
				return nil, invalidQuery(raw)
			}
			for engine, list := range releases {
				idx := min(n, len(list)) - 1
				add(engine, list[idx])
			}
			continue
		}

		fields := strings.Fields(q)
		if len(fields) != 2 || !isVersion(fields[1]) {
			return nil, invalidQuery(raw)
		}
		browser, version := fields[0], fields[1]
		if browser == "android" {
			if mapped, ok := androidToChrome[version]; ok {
				version = mapped
			} else if compareVersions(version, "5") < 0 {
				return nil, invalidQuery(raw)
			}
			add(api.EngineChrome, version)
			continue
		}
		engine, ok := browserAliases[browser]
		if !ok {
			return nil, ferrors.ValidationError("unknown browser in target list").
				WithContext("query", raw).
				Build()
		}
		add(engine, version)
	}

	engines := make([]api.Engine, 0, len(lowest))
	for name, version := range lowest {
		engines = append(engines, api.Engine{Name: name, Version: version})
	}
	sort.Slice(engines, func(i, j int) bool { return engines[i].Name < engines[j].Name })
	return engines, nil
}

func invalidQuery(raw string) error {
	return ferrors.ValidationError("invalid browser query").WithContext("query", raw).Build()
}

func isVersion(s string) bool {
	for _, part := range strings.Split(s, ".") {
		if _, err := strconv.Atoi(part); err != nil {
			return false
		}
	}
	return true
}

// compareVersions compares dotted numeric versions.
func compareVersions(a, b string) int {
	as, bs := strings.Split(a, "."), strings.Split(b, ".")
	for i := 0; i < max(len(as), len(bs)); i++ {
		var x, y int
		if i < len(as) {
			x, _ = strconv.Atoi(as[i])
		}
		if i < len(bs) {
			y, _ = strconv.Atoi(bs[i])
		}
		if x != y {
			if x < y {
				return -1
			}
			return 1
		}
	}
	return 0
}
