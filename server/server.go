// Package server exposes a store over HTTP.
package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"runtime/pprof"
	"strconv"
	"sync"
	"time"

	"github.com/google/pprof/profile"
	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/sarchlab/accesslog/store"
	"github.com/shirou/gopsutil/process"
)

// Server turns a store into a web service.
type Server struct {
	store      *store.Store
	portNumber int
	openURL    bool

	// Appends through the same server are serialized. Other processes writing
	// to the file are not.
	appendLock sync.Mutex

	listener net.Listener
}

// NewServer creates a server for the given store.
func NewServer(s *store.Store) *Server {
	return &Server{store: s}
}

// WithPortNumber sets the port number of the server.
func (s *Server) WithPortNumber(portNumber int) *Server {
	if portNumber != 0 && portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the access log server, "+
				"which is not allowed. Using a random port instead.\n", portNumber)
		portNumber = 0
	}

	s.portNumber = portNumber

	return s
}

// WithBrowser makes the server open the store view in a browser once it
// listens.
func (s *Server) WithBrowser(open bool) *Server {
	s.openURL = open
	return s
}

// Router returns the HTTP routes of the server.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/api/binary-file", s.binaryFile).Methods(http.MethodGet)
	r.HandleFunc("/api/accesses", s.listAccesses).Methods(http.MethodGet)
	r.HandleFunc("/api/accesses", s.recordAccess).Methods(http.MethodPost)
	r.HandleFunc("/api/resource", s.listResources).Methods(http.MethodGet)
	r.HandleFunc("/api/profile", s.collectProfile).Methods(http.MethodGet)

	return r
}

// Start listens on the configured port and serves in the background. It
// returns the URL of the server.
func (s *Server) Start() (string, error) {
	actualPort := ":0"
	if s.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(s.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	if err != nil {
		return "", err
	}

	s.listener = listener

	url := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Serving access log %s with %s\n",
		s.store.Path(), url)

	go func() {
		err := http.Serve(listener, s.Router())
		if err != nil {
			log.Printf("access log server stopped: %v", err)
		}
	}()

	if s.openURL {
		err = browser.OpenURL(url + "/api/binary-file")
		if err != nil {
			log.Printf("cannot open browser: %v", err)
		}
	}

	return url, nil
}

// Stop closes the listener.
func (s *Server) Stop() error {
	if s.listener == nil {
		return nil
	}

	return s.listener.Close()
}

type binaryFileRsp struct {
	OK      bool   `json:"ok"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (s *Server) binaryFile(w http.ResponseWriter, _ *http.Request) {
	content, err := s.store.ReadStore()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError,
			binaryFileRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, binaryFileRsp{OK: true, Content: content})
}

// accessMsg is the JSON form of a record.
type accessMsg struct {
	Time    string `json:"time,omitempty"`
	SeqName string `json:"seq"`
	Address string `json:"address"`
	Tag     string `json:"tag"`
	Index   string `json:"index"`
	Offset  string `json:"offset"`
	Data    string `json:"data"`
}

type errorRsp struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func (s *Server) listAccesses(w http.ResponseWriter, _ *http.Request) {
	records, err := s.store.Records()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	msgs := make([]accessMsg, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, accessMsg{
			Time:    r.Time.Format(store.TimeLayout),
			SeqName: r.SeqName,
			Address: r.Address,
			Tag:     r.Tag,
			Index:   r.Index,
			Offset:  r.Offset,
			Data:    r.Data,
		})
	}

	writeJSON(w, http.StatusOK, msgs)
}

func (s *Server) recordAccess(w http.ResponseWriter, r *http.Request) {
	var msg accessMsg

	err := json.NewDecoder(r.Body).Decode(&msg)
	if err != nil {
		writeJSON(w, http.StatusBadRequest,
			errorRsp{Error: "invalid access: " + err.Error()})
		return
	}

	s.appendLock.Lock()
	err = s.store.RecordAccess(
		msg.Address, msg.Tag, msg.Index, msg.Offset, msg.Data, msg.SeqName)
	s.appendLock.Unlock()

	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]bool{"ok": true})
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (s *Server) listResources(w http.ResponseWriter, _ *http.Request) {
	p, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	cpuPercent, err := p.CPUPercent()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	memoryInfo, err := p.MemoryInfo()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memoryInfo.RSS,
	})
}

// profileDuration is how long /api/profile samples the CPU.
var profileDuration = time.Second

func (s *Server) collectProfile(w http.ResponseWriter, _ *http.Request) {
	buf := bytes.NewBuffer(nil)

	err := pprof.StartCPUProfile(buf)
	if err != nil {
		writeJSON(w, http.StatusConflict, errorRsp{Error: err.Error()})
		return
	}

	time.Sleep(profileDuration)

	pprof.StopCPUProfile()

	prof, err := profile.ParseData(buf.Bytes())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorRsp{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, prof)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		log.Printf("cannot write response: %v", err)
	}
}
