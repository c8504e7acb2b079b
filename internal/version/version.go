// Package version хранит сведения о сборке. version, commit и date задаются через
// -ldflags "-X github.com/vladislavdragonenkov/catalog/internal/version.version=v1.2.3";
// незаданные commit и date берутся из VCS-меток debug.ReadBuildInfo.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

const unknown = "unknown"

var (
	version = "dev"
	commit  = ""
	date    = ""
)

// Build описывает собранный бинарник.
type Build struct {
	Version   string
	Commit    string
	Date      string
	GoVersion string
}

func (b Build) String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s go=%s", b.Version, b.Commit, b.Date, b.GoVersion)
}

var current = sync.OnceValue(func() Build {
	info, _ := debug.ReadBuildInfo()
	return resolve(Build{Version: version, Commit: commit, Date: date}, info)
})

// Current возвращает сведения о сборке, вычисленные один раз за процесс.
func Current() Build { return current() }

// GetVersion возвращает только номер версии, его отдают /healthz и CLI.
func GetVersion() string { return version }

// UserAgent: идентификатор клиента для внешних систем (Kafka client.id).
func UserAgent(component string) string {
	return fmt.Sprintf("catalog-%s/%s", component, version)
}

// String используется как --version у CLI.
func String() string { return Current().String() }

func resolve(b Build, info *debug.BuildInfo) Build {
	if info != nil {
		b.GoVersion = info.GoVersion
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && b.Commit == "":
				b.Commit = s.Value
			case s.Key == "vcs.time" && b.Date == "":
				b.Date = s.Value
			}
		}
	}
	for _, field := range []*string{&b.Commit, &b.Date, &b.GoVersion} {
		if *field == "" {
			*field = unknown
		}
	}
	return b
}
