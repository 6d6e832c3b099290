package store

import (
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/mock/gomock"
)

var linePattern = regexp.MustCompile(
	`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2} \| seq=\S+ \| addr=`)

func readLines(path string) []string {
	content, err := os.ReadFile(path)
	Expect(err).NotTo(HaveOccurred())

	lines := strings.SplitAfter(string(content), "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}

var _ = Describe("Store", func() {
	var (
		mockCtrl *gomock.Controller
		clock    *MockClock
		dir      string
		path     string
		s        *Store
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewMockClock(mockCtrl)

		var err error
		dir, err = os.MkdirTemp("", "accesslog_store_test_*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		path = filepath.Join(dir, DefaultPath)
		s = MakeBuilder().WithPath(path).WithClock(clock).Build()
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	Context("when ensuring the store", func() {
		It("should create the file with only the header", func() {
			Expect(s.EnsureStore()).To(Succeed())

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(Header))
		})

		It("should be idempotent", func() {
			for j := 0; j < 3; j++ {
				Expect(s.EnsureStore()).To(Succeed())
			}

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(Header))
		})

		It("should leave an existing file unchanged", func() {
			existing := "# somebody else's header\nkeep me\n"
			Expect(os.WriteFile(path, []byte(existing), 0o644)).To(Succeed())

			Expect(s.EnsureStore()).To(Succeed())

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(existing))
		})

		It("should not truncate a file created after the existence check", func() {
			existing := Header + "written by another process\n"
			Expect(os.WriteFile(path, []byte(existing), 0o644)).To(Succeed())

			Expect(s.create()).To(Succeed())

			content, err := os.ReadFile(path)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(content)).To(Equal(existing))
		})

		It("should report an unwritable location", func() {
			s = New(filepath.Join(dir, "missing", "dir", DefaultPath))

			Expect(s.EnsureStore()).NotTo(Succeed())
		})
	})

	Context("when recording accesses", func() {
		It("should write the exact line", func() {
			clock.EXPECT().Now().
				Return(time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local))

			err := s.RecordAccess(
				"00010010", "0001", "0010", "00", "11111111", "seqA")
			Expect(err).NotTo(HaveOccurred())

			Expect(readLines(path)).To(Equal([]string{
				Header,
				"2024-01-02 03:04:05 | seq=seqA | addr=00010010 tag=0001 " +
					"idx=0010 off=00 data=11111111\n",
			}))
		})

		It("should drop sub-second precision", func() {
			clock.EXPECT().Now().
				Return(time.Date(2024, 1, 2, 3, 4, 5, 987654321, time.Local))

			Expect(s.RecordAccess("1", "1", "1", "1", "1", "")).To(Succeed())

			lines := readLines(path)
			Expect(lines[1]).To(HavePrefix("2024-01-02 03:04:05 | "))
		})

		It("should write a dash when there is no sequence name", func() {
			clock.EXPECT().Now().Return(time.Now())

			Expect(s.RecordAccess("0", "0", "0", "0", "0", "")).To(Succeed())

			Expect(readLines(path)[1]).To(ContainSubstring(" | seq=- | "))
		})

		It("should store values verbatim", func() {
			clock.EXPECT().Now().Return(time.Now())

			err := s.RecordAccess("hello", "", "x y", "-1", "0xFF", "trace 1")
			Expect(err).NotTo(HaveOccurred())

			Expect(readLines(path)[1]).To(HaveSuffix(
				" | seq=trace 1 | addr=hello tag= idx=x y off=-1 data=0xFF\n"))
		})

		It("should append one line per call in call order", func() {
			clock.EXPECT().Now().Return(time.Now()).Times(5)

			for i := 0; i < 5; i++ {
				addr := strings.Repeat("1", i+1)
				Expect(s.RecordAccess(addr, "t", "i", "o", "d", "")).
					To(Succeed())
			}

			lines := readLines(path)
			Expect(lines).To(HaveLen(6))
			Expect(lines[0]).To(Equal(Header))
			for i, line := range lines[1:] {
				Expect(line).To(MatchRegexp(linePattern.String()))
				Expect(line).To(ContainSubstring(
					"addr=" + strings.Repeat("1", i+1) + " tag="))
			}
		})

		It("should keep lines written before the store handle existed", func() {
			Expect(os.WriteFile(path, []byte(Header+"old line\n"), 0o644)).
				To(Succeed())
			clock.EXPECT().Now().Return(time.Now())

			Expect(s.RecordAccess("1", "1", "1", "1", "1", "")).To(Succeed())

			lines := readLines(path)
			Expect(lines).To(HaveLen(3))
			Expect(lines[1]).To(Equal("old line\n"))
		})

		It("should not stamp a record that already has a time", func() {
			at := time.Date(2023, 12, 31, 23, 59, 59, 0, time.Local)

			err := s.Append(Record{Time: at, Address: "1", Data: "0"})
			Expect(err).NotTo(HaveOccurred())

			Expect(readLines(path)[1]).To(HavePrefix("2023-12-31 23:59:59 | "))
		})

		It("should report an unwritable location", func() {
			s = MakeBuilder().
				WithPath(filepath.Join(dir, "missing", DefaultPath)).
				WithClock(clock).
				Build()

			Expect(s.RecordAccess("1", "1", "1", "1", "1", "")).NotTo(Succeed())
		})
	})

	Context("when reading the store", func() {
		It("should create a fresh store and return the header", func() {
			content, err := s.ReadStore()

			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal(Header))
			Expect(path).To(BeAnExistingFile())
		})

		It("should return header and records in order", func() {
			clock.EXPECT().Now().
				Return(time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)).
				Times(3)

			Expect(s.RecordAccess("1", "a", "a", "a", "a", "r")).To(Succeed())
			Expect(s.RecordAccess("2", "b", "b", "b", "b", "r")).To(Succeed())
			Expect(s.RecordAccess("3", "c", "c", "c", "c", "r")).To(Succeed())

			content, err := s.ReadStore()

			Expect(err).NotTo(HaveOccurred())
			Expect(content).To(Equal(Header +
				"2024-05-06 07:08:09 | seq=r | addr=1 tag=a idx=a off=a data=a\n" +
				"2024-05-06 07:08:09 | seq=r | addr=2 tag=b idx=b off=b data=b\n" +
				"2024-05-06 07:08:09 | seq=r | addr=3 tag=c idx=c off=c data=c\n"))
		})

		It("should parse the records back", func() {
			clock.EXPECT().Now().
				Return(time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)).
				Times(2)

			Expect(s.RecordAccess("1", "a", "b", "c", "d", "")).To(Succeed())
			Expect(s.RecordAccess("2", "e", "f", "g", "h", "s")).To(Succeed())

			records, err := s.Records()

			Expect(err).NotTo(HaveOccurred())
			Expect(records).To(HaveLen(2))
			Expect(records[0].SeqName).To(BeEmpty())
			Expect(records[0].Address).To(Equal("1"))
			Expect(records[1].SeqName).To(Equal("s"))
			Expect(records[1].Data).To(Equal("h"))
		})
	})

	Context("with the default path", func() {
		It("should resolve the path against the working directory", func() {
			wd, err := os.Getwd()
			Expect(err).NotTo(HaveOccurred())
			Expect(os.Chdir(dir)).To(Succeed())
			DeferCleanup(os.Chdir, wd)

			s = New("")
			Expect(s.Path()).To(Equal(DefaultPath))

			Expect(s.EnsureStore()).To(Succeed())
			Expect(filepath.Join(dir, DefaultPath)).To(BeAnExistingFile())
		})
	})
})
