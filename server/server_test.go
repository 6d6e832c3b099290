package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gorilla/mux"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/accesslog/store"
)

type fixedClock struct{}

func (fixedClock) Now() time.Time {
	return time.Date(2024, 1, 2, 3, 4, 5, 0, time.Local)
}

var _ = Describe("Server", func() {
	var (
		dir    string
		s      *store.Store
		srv    *Server
		router *mux.Router
	)

	serve := func(method, target, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		return rec
	}

	BeforeEach(func() {
		var err error
		dir, err = os.MkdirTemp("", "accesslog_server_test_*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(os.RemoveAll, dir)

		s = store.MakeBuilder().
			WithPath(filepath.Join(dir, store.DefaultPath)).
			WithClock(fixedClock{}).
			Build()
		srv = NewServer(s)
		router = srv.Router()
	})

	It("should return the binary file content", func() {
		Expect(s.RecordAccess("1", "2", "3", "4", "5", "seqA")).To(Succeed())

		rec := serve(http.MethodGet, "/api/binary-file", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var rsp binaryFileRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.OK).To(BeTrue())
		Expect(rsp.Content).To(Equal(store.Header +
			"2024-01-02 03:04:05 | seq=seqA | addr=1 tag=2 idx=3 off=4 data=5\n"))
	})

	It("should create the store when reading a fresh one", func() {
		rec := serve(http.MethodGet, "/api/binary-file", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Body.String()).To(ContainSubstring(`"ok":true`))
		Expect(s.Path()).To(BeAnExistingFile())
	})

	It("should report read failures", func() {
		srv = NewServer(store.New(filepath.Join(dir, "missing", "x.txt")))
		router = srv.Router()

		rec := serve(http.MethodGet, "/api/binary-file", "")

		Expect(rec.Code).To(Equal(http.StatusInternalServerError))
		Expect(rec.Body.String()).To(ContainSubstring(`"ok":false`))
	})

	It("should record a posted access", func() {
		rec := serve(http.MethodPost, "/api/accesses",
			`{"address":"00010010","tag":"0001","index":"0010",`+
				`"offset":"00","data":"11111111"}`)

		Expect(rec.Code).To(Equal(http.StatusCreated))
		content, err := s.ReadStore()
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(HaveSuffix(
			" | seq=- | addr=00010010 tag=0001 idx=0010 off=00 data=11111111\n"))
	})

	It("should reject a malformed body", func() {
		rec := serve(http.MethodPost, "/api/accesses", `{"address":`)

		Expect(rec.Code).To(Equal(http.StatusBadRequest))
		content, err := s.ReadStore()
		Expect(err).NotTo(HaveOccurred())
		Expect(content).To(Equal(store.Header))
	})

	It("should list parsed accesses in order", func() {
		Expect(s.RecordAccess("1", "a", "a", "a", "a", "")).To(Succeed())
		Expect(s.RecordAccess("2", "b", "b", "b", "b", "s")).To(Succeed())

		rec := serve(http.MethodGet, "/api/accesses", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var msgs []accessMsg
		Expect(json.Unmarshal(rec.Body.Bytes(), &msgs)).To(Succeed())
		Expect(msgs).To(Equal([]accessMsg{
			{Time: "2024-01-02 03:04:05", Address: "1",
				Tag: "a", Index: "a", Offset: "a", Data: "a"},
			{Time: "2024-01-02 03:04:05", SeqName: "s", Address: "2",
				Tag: "b", Index: "b", Offset: "b", Data: "b"},
		}))
	})

	It("should report process resources", func() {
		rec := serve(http.MethodGet, "/api/resource", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		var rsp resourceRsp
		Expect(json.Unmarshal(rec.Body.Bytes(), &rsp)).To(Succeed())
		Expect(rsp.MemorySize).To(BeNumerically(">", 0))
	})

	It("should collect a CPU profile", func() {
		original := profileDuration
		profileDuration = 50 * time.Millisecond
		DeferCleanup(func() { profileDuration = original })

		rec := serve(http.MethodGet, "/api/profile", "")

		Expect(rec.Code).To(Equal(http.StatusOK))
		Expect(rec.Header().Get("Content-Type")).To(Equal("application/json"))

		var prof map[string]any
		Expect(json.Unmarshal(rec.Body.Bytes(), &prof)).To(Succeed())
		Expect(prof).To(HaveKey("SampleType"))
		Expect(prof).To(HaveKey("DurationNanos"))
	})

	It("should not allow other methods", func() {
		rec := serve(http.MethodDelete, "/api/binary-file", "")

		Expect(rec.Code).To(Equal(http.StatusMethodNotAllowed))
	})

	It("should replace reserved port numbers", func() {
		Expect(srv.WithPortNumber(80).portNumber).To(Equal(0))
		Expect(srv.WithPortNumber(8080).portNumber).To(Equal(8080))
	})

	It("should serve on a random port", func() {
		url, err := srv.Start()
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(srv.Stop)

		rsp, err := http.Get(url + "/api/binary-file")
		Expect(err).NotTo(HaveOccurred())
		defer rsp.Body.Close()

		Expect(rsp.StatusCode).To(Equal(http.StatusOK))
	})
})
