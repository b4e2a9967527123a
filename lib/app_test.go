package lib_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"audio-extract/lib"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type logLine struct {
	message  string
	severity lib.Severity
}

type captureSink struct {
	mu       sync.Mutex
	progress [][2]int
	logs     []logLine
}

func (c *captureSink) OnProgress(processed, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.progress = append(c.progress, [2]int{processed, total})
}

func (c *captureSink) OnLog(message string, severity lib.Severity) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logs = append(c.logs, logLine{message, severity})
}

func (c *captureSink) severities() map[lib.Severity]int {
	c.mu.Lock()
	defer c.mu.Unlock()
	counts := make(map[lib.Severity]int)
	for _, l := range c.logs {
		counts[l.severity]++
	}
	return counts
}

func (c *captureSink) lastLog() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.logs) == 0 {
		return ""
	}
	return c.logs[len(c.logs)-1].message
}

func touch(dir string, names ...string) {
	for _, name := range names {
		path := filepath.Join(dir, name)
		Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
		Expect(os.WriteFile(path, []byte("video"), 0644)).To(Succeed())
	}
}

var _ = Describe("App", func() {
	var (
		inputDir  string
		outputDir string
		sink      *captureSink
		app       *lib.App
	)

	BeforeEach(func() {
		inputDir = GinkgoT().TempDir()
		outputDir = filepath.Join(GinkgoT().TempDir(), "out")
		sink = &captureSink{}
		app = lib.NewApp(lib.DefaultConfig(), sink, sink)
	})

	request := func() lib.Request {
		return lib.Request{InputDir: inputDir, OutputDir: outputDir, Recursive: true, MaxWorkers: 2}
	}

	Context("validation", func() {
		It("rejects a missing input directory and returns to idle", func() {
			req := request()
			req.InputDir = filepath.Join(inputDir, "missing")

			summary, err := app.Start(context.Background(), req)

			Expect(err).To(MatchError(lib.ErrInvalidInput))
			Expect(summary).To(BeNil())
			Expect(app.State()).To(Equal(lib.StateIdle))
		})

		It("rejects an empty input path", func() {
			_, err := app.Start(context.Background(), lib.Request{})
			Expect(err).To(MatchError(lib.ErrInvalidInput))
		})

		It("creates the output directory and finds nothing in it", func() {
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				return lib.Succeeded(job.Input)
			})

			_, err := app.Start(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())
			Expect(outputDir).To(BeADirectory())

			req := request()
			req.InputDir = outputDir
			summary, err := app.Start(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(BeZero())
			Expect(app.State()).To(Equal(lib.StateFinished))
		})

		It("uses the input directory when no output directory is given", func() {
			touch(inputDir, "clip.mp4")
			var seen string
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				seen = job.OutputDir
				return lib.Succeeded(job.Input)
			})

			req := request()
			req.OutputDir = ""
			_, err := app.Start(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())

			abs, _ := filepath.Abs(inputDir)
			Expect(seen).To(Equal(abs))
		})

		It("follows an input directory that is a symlink", func() {
			touch(inputDir, "a.mp4", "b.mkv")
			link := filepath.Join(GinkgoT().TempDir(), "videos")
			if err := os.Symlink(inputDir, link); err != nil {
				Skip("symlinks are not available: " + err.Error())
			}
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				return lib.Succeeded(job.Input)
			})

			req := request()
			req.InputDir = link
			summary, err := app.Start(context.Background(), req)

			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(Equal(2))
			Expect(summary.Succeeded).To(Equal(2))
		})
	})

	Context("a full run", func() {
		BeforeEach(func() {
			touch(inputDir, "a.mp4", "b.mkv", "c.avi", "notes.txt", "sub/d.mov", "sub/e.webm")
		})

		It("accounts for every job regardless of completion order", func() {
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				switch filepath.Base(job.Input) {
				case "a.mp4":
					time.Sleep(30 * time.Millisecond)
					return lib.Succeeded(job.Input)
				case "b.mkv":
					return lib.Failed("no audio stream")
				default:
					return lib.Succeeded(job.Input)
				}
			})

			summary, err := app.Start(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())

			Expect(summary.Total).To(Equal(5))
			Expect(summary.Processed).To(Equal(5))
			Expect(summary.Succeeded).To(Equal(4))
			Expect(summary.Failed).To(Equal(1))
			Expect(summary.Cancelled).To(BeZero())
			Expect(summary.Succeeded + summary.Failed + summary.Cancelled).To(Equal(summary.Total))
			Expect(summary.Stopped).To(BeFalse())
			Expect(summary.Results).To(HaveLen(5))
			Expect(app.State()).To(Equal(lib.StateFinished))
		})

		It("reports monotonically increasing progress and tagged log lines", func() {
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				if filepath.Base(job.Input) == "c.avi" {
					return lib.Failed("corrupt")
				}
				return lib.Succeeded(job.Input)
			})

			_, err := app.Start(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())

			Expect(sink.progress).NotTo(BeEmpty())
			last := -1
			for _, p := range sink.progress {
				Expect(p[1]).To(Equal(5))
				Expect(p[0]).To(BeNumerically(">=", last))
				last = p[0]
			}
			Expect(last).To(Equal(5))

			counts := sink.severities()
			Expect(counts[lib.SeveritySuccess]).To(Equal(4))
			Expect(counts[lib.SeverityFailure]).To(Equal(1))
			Expect(sink.lastLog()).To(ContainSubstring("All jobs finished"))
		})

		It("only scans direct children when not recursive", func() {
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				return lib.Succeeded(job.Input)
			})
			req := request()
			req.Recursive = false

			summary, err := app.Start(context.Background(), req)
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Total).To(Equal(3))
		})
	})

	Context("stopping", func() {
		BeforeEach(func() {
			touch(inputDir, "a.mp4", "b.mp4", "c.mp4", "d.mp4", "e.mp4", "f.mp4")
		})

		It("cancels every job when stopped before any job starts", func() {
			calls := 0
			var mu sync.Mutex
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				mu.Lock()
				calls++
				mu.Unlock()
				return lib.Succeeded(job.Input)
			})
			app.OnState = func(s lib.State) {
				if s == lib.StateDispatching {
					app.Stop()
					app.Stop()
				}
			}

			summary, err := app.Start(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())

			Expect(summary.Cancelled).To(Equal(6))
			Expect(summary.Succeeded).To(BeZero())
			Expect(summary.Processed).To(Equal(summary.Total))
			Expect(summary.Stopped).To(BeTrue())
			Expect(calls).To(BeZero())
			Expect(sink.lastLog()).To(ContainSubstring("stopped by user"))
		})

		It("lets running jobs finish and cancels the queue", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				once.Do(func() { close(started) })
				<-release
				return lib.Succeeded(job.Input)
			})
			req := request()
			req.MaxWorkers = 1

			done := make(chan *lib.Summary)
			go func() {
				defer GinkgoRecover()
				summary, err := app.Start(context.Background(), req)
				Expect(err).NotTo(HaveOccurred())
				done <- summary
			}()

			Eventually(started).Should(BeClosed())
			app.Stop()
			close(release)

			var summary *lib.Summary
			Eventually(done, 5*time.Second).Should(Receive(&summary))
			Expect(summary.Succeeded).To(Equal(1))
			Expect(summary.Cancelled).To(Equal(5))
			Expect(summary.Succeeded + summary.Failed + summary.Cancelled).To(Equal(summary.Total))
			Expect(summary.Stopped).To(BeTrue())
		})

		It("refuses a second run while one is active", func() {
			started := make(chan struct{})
			release := make(chan struct{})
			var once sync.Once
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				once.Do(func() { close(started) })
				<-release
				return lib.Succeeded(job.Input)
			})

			done := make(chan struct{})
			go func() {
				defer GinkgoRecover()
				defer close(done)
				_, err := app.Start(context.Background(), request())
				Expect(err).NotTo(HaveOccurred())
			}()

			Eventually(started).Should(BeClosed())
			_, err := app.Start(context.Background(), request())
			Expect(err).To(MatchError(lib.ErrRunActive))

			close(release)
			Eventually(done, 5*time.Second).Should(BeClosed())
		})

		It("ignores stop requests when no run is active", func() {
			app.Stop()
			app.Converter = lib.ConverterFunc(func(ctx context.Context, job lib.Job) lib.Outcome {
				return lib.Succeeded(job.Input)
			})

			summary, err := app.Start(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())
			Expect(summary.Succeeded).To(Equal(6))
			Expect(summary.Stopped).To(BeFalse())
		})
	})
})
