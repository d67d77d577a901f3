package source

import (
	"path/filepath"
	"regexp"
	"sort"
	"strconv"

	"go.uber.org/zap"
)

// ImagesPerScene is the naming convention: images 1,2 belong to scene 1, 3,4 to scene 2.
const ImagesPerScene = 2

var leadingDigits = regexp.MustCompile(`^(\d+)`)

// ImageRef is one input image and the number its filename starts with.
type ImageRef struct {
	Path   string
	Number int
}

// SceneImages holds the images of one scene in the order they were supplied.
type SceneImages struct {
	Scene  int
	Images []ImageRef
}

// SceneImageMap is sorted ascending by scene ordinal. Scenes without images are absent.
type SceneImageMap []SceneImages

func (m SceneImageMap) ImageCount() int {
	n := 0
	for _, s := range m {
		n += len(s.Images)
	}
	return n
}

// ParseImageNumber returns the leading decimal number of the file name.
func ParseImageNumber(path string) (int, bool) {
	match := leadingDigits.FindString(filepath.Base(path))
	if match == "" {
		return 0, false
	}
	n, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return n, true
}

// SceneFor maps an image number to its 1-based scene ordinal.
func SceneFor(n int) int {
	return (n + ImagesPerScene - 1) / ImagesPerScene
}

// MapImages groups paths into scenes by filename number. Within a scene the
// input order is kept; numbers are not re-sorted. Unusable names are skipped.
func MapImages(paths []string, logger *zap.Logger) SceneImageMap {
	if logger == nil {
		logger = zap.NewNop()
	}

	byScene := make(map[int][]ImageRef)
	for _, p := range paths {
		n, ok := ParseImageNumber(p)
		if !ok {
			logger.Warn("skipping image without leading number", zap.String("file", filepath.Base(p)))
			continue
		}
		scene := SceneFor(n)
		if scene < 1 {
			logger.Warn("skipping image numbered 0", zap.String("file", filepath.Base(p)))
			continue
		}
		byScene[scene] = append(byScene[scene], ImageRef{Path: p, Number: n})
	}

	keys := make([]int, 0, len(byScene))
	for k := range byScene {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := make(SceneImageMap, 0, len(keys))
	for _, k := range keys {
		out = append(out, SceneImages{Scene: k, Images: byScene[k]})
	}
	return out
}
