package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"glspool/internal/events"
	"glspool/internal/lockguard"
	"glspool/internal/logger"
	"glspool/internal/metrics"
	"glspool/internal/scenario"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/websocket"
)

// statusInterval はWebSocketへのステータス配信間隔
const statusInterval = time.Second

// Server はAPIサーバー
type Server struct {
	addr      string
	registry  *prometheus.Registry
	collector *metrics.Collector
	bus       *events.Bus
	eventCh   <-chan events.Event

	mu         sync.RWMutex
	running    bool
	engine     *scenario.Engine
	config     scenario.Config
	cancel     context.CancelFunc
	done       chan struct{}
	lastResult *scenario.Result
	wsClients  map[*websocket.Conn]bool
}

// NewServer は新しいAPIサーバーを作成する
func NewServer(addr, namespace string) *Server {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	bus := events.NewBusWithBuffer(1024)
	return &Server{
		addr:      addr,
		registry:  registry,
		collector: metrics.NewCollector(registry, namespace),
		bus:       bus,
		eventCh:   bus.Subscribe(),
		wsClients: make(map[*websocket.Conn]bool),
	}
}

// Handler はルーティング済みのハンドラを返す
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// API routes
	mux.HandleFunc("/api/status", s.handleStatus)
	mux.HandleFunc("/api/metrics", s.handleMetrics)
	mux.HandleFunc("/api/result", s.handleResult)
	mux.HandleFunc("/api/scenario/start", s.handleScenarioStart)
	mux.HandleFunc("/api/scenario/stop", s.handleScenarioStop)
	mux.HandleFunc("/api/presets", s.handlePresets)

	// WebSocket
	mux.Handle("/ws", websocket.Handler(s.handleWebSocket))

	// Prometheus
	mux.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	return mux
}

// Start はサーバーを開始し、ctx がキャンセルされるまでブロックする
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve は ln で待ち受ける。ctx がキャンセルされると実行中シナリオの投入を止め、
// 接続を閉じ、投入済みジョブの完了を待ってからイベントバスを閉じて返る
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// バックグラウンドでイベント配信
	go s.forwardEvents(ctx)

	logger.Info("api", "API Server starting on http://%s", ln.Addr())

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		<-ctx.Done()
		s.stopScenario()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	<-stopped
	s.Wait()
	s.bus.Close()
	logger.Info("api", "API Server stopped")
	return nil
}

// StatusResponse はステータスレスポンス
type StatusResponse struct {
	Running       bool   `json:"running"`
	ScenarioName  string `json:"scenario_name,omitempty"`
	Workers       int    `json:"workers"`
	QueueSize     int    `json:"queue_size"`
	SubmittedJobs uint64 `json:"submitted_jobs"`
	CompletedJobs uint64 `json:"completed_jobs"`
	InFlight      int64  `json:"in_flight"`
	DroppedEvents uint64 `json:"dropped_events"`
}

func (s *Server) status() StatusResponse {
	defer lockguard.Read(&s.mu).Release()

	resp := StatusResponse{
		Running:       s.running,
		ScenarioName:  s.config.Name,
		Workers:       s.config.Workers,
		DroppedEvents: s.bus.Dropped(),
	}
	if s.engine != nil {
		resp.QueueSize = s.engine.QueueSize()
		if m := s.engine.Metrics(); m != nil {
			resp.SubmittedJobs = m.SubmittedJobs
			resp.CompletedJobs = m.CompletedJobs
			resp.InFlight = m.InFlight
		}
	}
	return resp
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	s.writeJSON(w, s.status())
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	g := lockguard.Read(&s.mu)
	engine := s.engine
	g.Release()

	var snapshot metrics.Snapshot
	if engine != nil {
		if m := engine.Metrics(); m != nil {
			snapshot = *m
		}
	}
	s.writeJSON(w, snapshot)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	g := lockguard.Read(&s.mu)
	result := s.lastResult
	g.Release()

	if result == nil {
		http.Error(w, "No completed scenario", http.StatusNotFound)
		return
	}
	s.writeJSON(w, struct {
		*scenario.Result
		Verified bool `json:"verified"`
	}{result, result.Verified()})
}

// ScenarioRequest はシナリオ開始リクエスト
type ScenarioRequest struct {
	Preset         string `json:"preset"`
	Workers        int    `json:"workers,omitempty"`
	Jobs           *int   `json:"jobs,omitempty"`
	Submitters     int    `json:"submitters,omitempty"`
	JobDuration    string `json:"job_duration,omitempty"`
	SubmitInterval string `json:"submit_interval,omitempty"`
}

// toConfig はプリセットにリクエストの値を重ねる
func (req ScenarioRequest) toConfig() (scenario.Config, error) {
	preset := req.Preset
	if preset == "" {
		preset = "basic"
	}
	config, ok := scenario.GetPreset(preset)
	if !ok {
		return config, fmt.Errorf("unknown preset: %s", preset)
	}

	if req.Workers > 0 {
		config.Workers = req.Workers
	}
	if req.Jobs != nil {
		config.Jobs = *req.Jobs
	}
	if req.Submitters > 0 {
		config.Submitters = req.Submitters
	}
	if req.JobDuration != "" {
		d, err := time.ParseDuration(req.JobDuration)
		if err != nil {
			return config, fmt.Errorf("invalid job_duration: %w", err)
		}
		config.JobDuration = d
	}
	if req.SubmitInterval != "" {
		d, err := time.ParseDuration(req.SubmitInterval)
		if err != nil {
			return config, fmt.Errorf("invalid submit_interval: %w", err)
		}
		config.SubmitInterval = d
	}
	return config, config.Validate()
}

func (s *Server) handleScenarioStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	config, err := req.toConfig()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := s.StartScenario(config); err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	s.writeJSON(w, map[string]string{"status": "started", "scenario": config.Name})
}

// StartScenario はシナリオをバックグラウンドで開始する
func (s *Server) StartScenario(config scenario.Config) error {
	g := lockguard.Write(&s.mu)
	if s.running {
		g.Release()
		return scenario.ErrAlreadyRunning
	}

	engine := scenario.New(config)
	engine.SetEventBus(s.bus)
	engine.SetCollector(s.collector)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	s.config = config
	s.engine = engine
	s.cancel = cancel
	s.done = done
	s.running = true
	g.Release()

	go func() {
		defer close(done)
		defer cancel()

		result, err := engine.Run(ctx)

		lockguard.With(&s.mu, func() {
			s.running = false
			if result != nil {
				s.lastResult = result
			}
		})

		if err != nil {
			logger.Error("api", "Scenario failed: %v", err)
		} else {
			logger.Info("api", "Scenario completed: %d jobs", result.CompletedJobs)
		}

		s.broadcast(map[string]any{
			"type":   "scenario_complete",
			"result": result,
		})
	}()

	return nil
}

func (s *Server) handleScenarioStop(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if !s.stopScenario() {
		http.Error(w, "No scenario running", http.StatusBadRequest)
		return
	}

	s.writeJSON(w, map[string]string{"status": "stop requested"})
}

// stopScenario は実行中のシナリオの投入を止める。投入済みのジョブは完了まで走る
func (s *Server) stopScenario() bool {
	defer lockguard.Write(&s.mu).Release()
	if !s.running {
		return false
	}
	s.cancel()
	return true
}

// Wait は実行中のシナリオの終了を待つ
func (s *Server) Wait() {
	g := lockguard.Read(&s.mu)
	done := s.done
	g.Release()
	if done != nil {
		<-done
	}
}

// PresetInfo はプリセット情報
type PresetInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Workers     int    `json:"workers"`
	Jobs        int    `json:"jobs"`
	Submitters  int    `json:"submitters"`
}

func (s *Server) handlePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	names := scenario.ListPresets()
	presets := make([]PresetInfo, 0, len(names))
	for _, name := range names {
		c, _ := scenario.GetPreset(name)
		presets = append(presets, PresetInfo{
			Name:        c.Name,
			Description: c.Description,
			Workers:     c.Workers,
			Jobs:        c.Jobs,
			Submitters:  c.Submitters,
		})
	}

	s.writeJSON(w, presets)
}

// WebSocket handling
func (s *Server) handleWebSocket(ws *websocket.Conn) {
	lockguard.With(&s.mu, func() {
		s.wsClients[ws] = true
	})

	defer func() {
		lockguard.With(&s.mu, func() {
			delete(s.wsClients, ws)
		})
		_ = ws.Close()
	}()

	// Keep connection alive
	for {
		var msg string
		if err := websocket.Message.Receive(ws, &msg); err != nil {
			break
		}
	}
}

func (s *Server) clientCount() int {
	defer lockguard.Read(&s.mu).Release()
	return len(s.wsClients)
}

func (s *Server) broadcast(data any) {
	g := lockguard.Read(&s.mu)
	clients := make([]*websocket.Conn, 0, len(s.wsClients))
	for ws := range s.wsClients {
		clients = append(clients, ws)
	}
	g.Release()

	if len(clients) == 0 {
		return
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}

	for _, ws := range clients {
		_ = websocket.Message.Send(ws, string(jsonData))
	}
}

// forwardEvents はプールのイベントと定期ステータスをWebSocketに配信する
func (s *Server) forwardEvents(ctx context.Context) {
	ticker := time.NewTicker(statusInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-s.eventCh:
			if !ok {
				return
			}
			s.broadcast(ev)
		case <-ticker.C:
			status := s.status()
			if !status.Running {
				continue
			}
			s.broadcast(map[string]any{
				"type":   "status",
				"status": status,
			})
		}
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("api", "Failed to encode JSON: %v", err)
	}
}
