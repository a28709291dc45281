package healthsrv_test

import (
	"context"
	"io"
	"log"
	"net"
	"testing"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/pirguard/pirguard/internal/healthsrv"
)

func TestSetLink_FlipsBusStatus(t *testing.T) {
	s := healthsrv.New(":0", log.New(io.Discard, "", 0))
	ctx := context.Background()

	st, err := s.Check(ctx, healthsrv.BusService)
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if st != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING at start, got %v", st)
	}

	s.SetLink(false)
	if st, _ := s.Check(ctx, healthsrv.BusService); st != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %v", st)
	}
	if st, _ := s.Check(ctx, ""); st != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected overall status unaffected, got %v", st)
	}

	s.SetLink(true)
	if st, _ := s.Check(ctx, healthsrv.BusService); st != healthpb.HealthCheckResponse_SERVING {
		t.Errorf("expected SERVING again, got %v", st)
	}
}

func TestServe_AnswersHealthClient(t *testing.T) {
	s := healthsrv.New("", log.New(io.Discard, "", 0))
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	done := make(chan error, 1)
	go func() { done <- s.Serve(lis) }()
	t.Cleanup(func() {
		s.Shutdown()
		<-done
	})

	conn, err := grpc.NewClient(lis.Addr().String(), grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	s.SetLink(false)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	resp, err := healthpb.NewHealthClient(conn).Check(ctx, &healthpb.HealthCheckRequest{Service: healthsrv.BusService})
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if resp.GetStatus() != healthpb.HealthCheckResponse_NOT_SERVING {
		t.Errorf("expected NOT_SERVING, got %v", resp.GetStatus())
	}
}
