package worker

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/fetchdeck/backend/internal/queue"
)

// progressRe matches yt-dlp download status lines, e.g.
// [download]  45.2% of 10.50MiB at 1.20MiB/s ETA 00:12
var progressRe = regexp.MustCompile(`^\[download\]\s+([\d.]+)%(?:\s+of\s+~?\s*([\d.]+[KMGT]iB))?(?:\s+at\s+(\S+))?(?:\s+ETA\s+(\S+))?`)

// parseProgressLine turns one line of yt-dlp stdout into an event.
// Lines that carry no progress information return ok=false.
func parseProgressLine(line string) (queue.Event, bool) {
	line = strings.TrimSpace(line)

	if m := progressRe.FindStringSubmatch(line); m != nil {
		percent, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			return queue.Event{}, false
		}
		ev := queue.Event{
			Stage:    queue.StageDownload,
			Progress: int(percent),
			Size:     parseSize(m[2]),
			Speed:    m[3],
			ETA:      m[4],
		}
		return ev, true
	}

	// Post-download steps surface as a processing stage with no
	// meaningful percentage of their own.
	switch {
	case strings.HasPrefix(line, "[ExtractAudio]"):
		return queue.Event{Stage: queue.StageProcess, Progress: 100, Message: "extracting audio"}, true
	case strings.HasPrefix(line, "[Merger]"):
		return queue.Event{Stage: queue.StageProcess, Progress: 100, Message: "merging formats"}, true
	case strings.HasPrefix(line, "[EmbedThumbnail]") || strings.HasPrefix(line, "[Metadata]"):
		return queue.Event{Stage: queue.StageProcess, Progress: 100, Message: "embedding metadata"}, true
	}

	return queue.Event{}, false
}

// parseDestination extracts the output path from destination lines.
// The last destination reported wins, so post-processing output
// replaces the intermediate download path.
func parseDestination(line string) (string, bool) {
	line = strings.TrimSpace(line)

	for _, prefix := range []string{"[download] Destination: ", "[ExtractAudio] Destination: ", "[FixupM4a] Destination: "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimPrefix(line, prefix), true
		}
	}

	const mergePrefix = `[Merger] Merging formats into "`
	if strings.HasPrefix(line, mergePrefix) {
		return strings.TrimSuffix(strings.TrimPrefix(line, mergePrefix), `"`), true
	}

	return "", false
}

// parseSize converts a human readable size like "10.50MiB" to bytes.
// Returns 0 for anything it cannot parse.
func parseSize(s string) int64 {
	if s == "" {
		return 0
	}

	units := map[string]float64{
		"KiB": 1 << 10,
		"MiB": 1 << 20,
		"GiB": 1 << 30,
		"TiB": 1 << 40,
	}

	for suffix, mult := range units {
		if strings.HasSuffix(s, suffix) {
			v, err := strconv.ParseFloat(strings.TrimSuffix(s, suffix), 64)
			if err != nil {
				return 0
			}
			return int64(v * mult)
		}
	}

	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "B"), 64)
	if err != nil {
		return 0
	}
	return int64(v)
}
