package yolo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Cubiaa/waste-yolo/logger"
)

// RemoteResult is one detection as returned by the detection server.
type RemoteResult struct {
	Label      string    `json:"label"`
	Confidence float32   `json:"confidence"`
	Box        []float32 `json:"box"`
}

// RemoteDetector sends frames as JPEG to a websocket detection server and
// reads back a JSON array of RemoteResult per frame.
type RemoteDetector struct {
	serverURL string
	timeout   time.Duration
	options   DetectionOptions
	log       *logger.Logger
	conf      *threshold

	mu     sync.Mutex
	conn   *websocket.Conn
	closed bool
}

// NewRemoteDetector creates a detector for host (host:port). The connection
// is opened on the first Predict.
func NewRemoteDetector(host, path string, timeout time.Duration, options *DetectionOptions, log *logger.Logger) *RemoteDetector {
	if log == nil {
		log = logger.NewNopLogger()
	}
	if options == nil {
		options = DefaultDetectionOptions()
	}
	if path == "" {
		path = "/ws"
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	u := url.URL{Scheme: "ws", Host: host, Path: path}

	return &RemoteDetector{
		serverURL: u.String(),
		timeout:   timeout,
		options:   *options,
		log:       log,
		conf:      newThreshold(options.ConfThreshold),
	}
}

func (d *RemoteDetector) SetConfThreshold(t float32) { d.conf.Store(t) }
func (d *RemoteDetector) ConfThreshold() float32     { return d.conf.Load() }

// Predict implements Predictor.
func (d *RemoteDetector) Predict(img image.Image) (image.Image, []Detection, error) {
	if emptyFrame(img) {
		return nil, nil, ErrEmptyFrame
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, nil, fmt.Errorf("encode frame: %w", err)
	}

	results, err := d.roundTrip(buf.Bytes())
	if err != nil {
		return nil, nil, err
	}

	threshold := d.conf.Load()
	detections := make([]Detection, 0, len(results))
	for _, r := range results {
		if r.Confidence < threshold || len(r.Box) != 4 {
			continue
		}
		detections = append(detections, Detection{
			Box:     [4]float32{r.Box[0], r.Box[1], r.Box[2], r.Box[3]},
			Score:   r.Confidence,
			ClassID: -1,
			Class:   r.Label,
		})
	}

	return Annotate(img, detections, &d.options), detections, nil
}

func (d *RemoteDetector) roundTrip(frame []byte) ([]RemoteResult, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, ErrClosed
	}
	if d.conn == nil {
		dialer := *websocket.DefaultDialer
		dialer.HandshakeTimeout = d.timeout
		conn, _, err := dialer.Dial(d.serverURL, nil)
		if err != nil {
			return nil, fmt.Errorf("connect detection server %s: %w", d.serverURL, err)
		}
		d.log.Info("connected to detection server", "url", d.serverURL)
		d.conn = conn
	}

	deadline := time.Now().Add(d.timeout)
	_ = d.conn.SetWriteDeadline(deadline)
	if err := d.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		d.dropLocked()
		return nil, fmt.Errorf("send frame: %w", err)
	}

	_ = d.conn.SetReadDeadline(deadline)
	_, message, err := d.conn.ReadMessage()
	if err != nil {
		d.dropLocked()
		return nil, fmt.Errorf("read detections: %w", err)
	}

	var results []RemoteResult
	if err := json.Unmarshal(message, &results); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}
	return results, nil
}

// dropLocked closes a broken connection so the next call redials.
func (d *RemoteDetector) dropLocked() {
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
		d.log.Warn("detection server connection lost", "url", d.serverURL)
	}
}

// Close closes the connection; further Predict calls fail with ErrClosed.
func (d *RemoteDetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.conn == nil {
		return nil
	}
	_ = d.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	err := d.conn.Close()
	d.conn = nil
	return err
}
