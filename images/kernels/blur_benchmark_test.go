package kernels

import (
	"fmt"
	"testing"

	"github.com/nvr-ai/go-convolve/images"
)

func BenchmarkBoxBlur_640(b *testing.B) {
	src := images.Generate(640, 640, images.PatternNoise, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BoxBlur(src)
	}
}

func BenchmarkBoxBlur_1080p(b *testing.B) {
	src := images.Generate(1080, 1920, images.PatternNoise, 1)
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _ = BoxBlur(src)
	}
}

func BenchmarkBoxBlurParallel_1080p(b *testing.B) {
	src := images.Generate(1080, 1920, images.PatternNoise, 1)
	for _, threads := range []int{1, 2, 4, 8, 16} {
		b.Run(fmt.Sprintf("threads=%d", threads), func(b *testing.B) {
			opt := Options{Threads: threads}
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				_, _ = BoxBlurParallel(src, opt)
			}
		})
	}
}
