package live

import (
	"context"
	"errors"
	"testing"
	"time"
)

func collectPreflight(t *testing.T, events <-chan Event) (camera, mic, network Event) {
	t.Helper()
	for i := 0; i < 3; i++ {
		select {
		case ev := <-events:
			switch ev.(type) {
			case CameraResult:
				camera = ev
			case MicrophoneResult:
				mic = ev
			case NetworkResult:
				network = ev
			}
		case <-time.After(2 * time.Second):
			t.Fatal("preflight did not deliver all three results")
		}
	}
	return camera, mic, network
}

func TestRunPreflightClassification(t *testing.T) {
	tests := []struct {
		name        string
		devices     *fakeDevices
		prober      fakeProber
		wantCamera  bool
		wantMic     bool
		wantNetGood bool
	}{
		{
			name:        "all good",
			devices:     &fakeDevices{},
			prober:      fakeProber{latency: 50 * time.Millisecond},
			wantCamera:  true,
			wantMic:     true,
			wantNetGood: true,
		},
		{
			name:        "camera denied",
			devices:     &fakeDevices{cameraErr: errors.New("denied")},
			prober:      fakeProber{latency: 50 * time.Millisecond},
			wantCamera:  false,
			wantMic:     true,
			wantNetGood: true,
		},
		{
			name:        "slow network is poor",
			devices:     &fakeDevices{},
			prober:      fakeProber{latency: 350 * time.Millisecond},
			wantCamera:  true,
			wantMic:     true,
			wantNetGood: false,
		},
		{
			name:        "probe failure is poor",
			devices:     &fakeDevices{},
			prober:      fakeProber{err: errors.New("unreachable")},
			wantCamera:  true,
			wantMic:     true,
			wantNetGood: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := RunPreflight(context.Background(), tt.devices, tt.prober)
			camera, mic, network := collectPreflight(t, events)

			if got := camera.(CameraResult).Granted; got != tt.wantCamera {
				t.Errorf("camera granted = %v, want %v", got, tt.wantCamera)
			}
			if got := mic.(MicrophoneResult).Granted; got != tt.wantMic {
				t.Errorf("microphone granted = %v, want %v", got, tt.wantMic)
			}
			if got := network.(NetworkResult).Good; got != tt.wantNetGood {
				t.Errorf("network good = %v, want %v", got, tt.wantNetGood)
			}

			if _, ok := <-events; ok {
				t.Error("channel not closed after all results")
			}
		})
	}
}

type hangingDevices struct{ fakeDevices }

func (hangingDevices) ProbeCamera(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestRunPreflightCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := RunPreflight(ctx, &hangingDevices{}, fakeProber{latency: time.Millisecond})

	cancel()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return // closed after cancellation, probes aborted
			}
		case <-deadline:
			t.Fatal("preflight channel did not close after cancellation")
		}
	}
}
