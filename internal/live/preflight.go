package live

import (
	"context"
	"net/http"
	"time"
)

// GoodLatencyThreshold classifies the network probe: under it the network
// is "good", over it (or on any failure) "poor". Poor never blocks start.
const GoodLatencyThreshold = 200 * time.Millisecond

// NetworkProber measures reachability latency for the preflight check.
type NetworkProber interface {
	Probe(ctx context.Context) (time.Duration, error)
}

// HTTPProber is the default prober: one lightweight request against a
// well-known endpoint, classified by round-trip time.
type HTTPProber struct {
	URL    string
	Client *http.Client
}

func (p *HTTPProber) Probe(ctx context.Context) (time.Duration, error) {
	client := p.Client
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Second}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, p.URL, nil)
	if err != nil {
		return 0, err
	}

	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	resp.Body.Close()
	return time.Since(start), nil
}

// RunPreflight launches the three pre-start probes, each independent and
// concurrent, and delivers their results as events on the returned channel.
// The channel closes once all three have reported or ctx is cancelled;
// cancelling mid-flight aborts the in-flight probes.
func RunPreflight(ctx context.Context, devices MediaDevices, prober NetworkProber) <-chan Event {
	out := make(chan Event, 3)

	emit := func(ev Event) {
		select {
		case out <- ev:
		case <-ctx.Done():
		}
	}

	done := make(chan struct{}, 3)

	go func() {
		err := devices.ProbeCamera(ctx)
		emit(CameraResult{Granted: err == nil})
		done <- struct{}{}
	}()

	go func() {
		err := devices.ProbeMicrophone(ctx)
		emit(MicrophoneResult{Granted: err == nil})
		done <- struct{}{}
	}()

	go func() {
		latency, err := prober.Probe(ctx)
		emit(NetworkResult{Good: err == nil && latency < GoodLatencyThreshold})
		done <- struct{}{}
	}()

	// probes honor ctx, so all three report promptly even on cancellation;
	// out closes only after the last one, never racing an in-flight emit
	go func() {
		for i := 0; i < 3; i++ {
			<-done
		}
		close(out)
	}()

	return out
}
