package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("BRIGHTBOOKS_TEST_MODE") == "" {
			_ = os.Setenv("BRIGHTBOOKS_TEST_MODE", "1")
		}
	})
}
