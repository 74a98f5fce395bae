package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/beka-birhanu/udp-socket-manager/crypto"
	udppb "github.com/beka-birhanu/udp-socket-manager/encoding"
	udpsocket "github.com/beka-birhanu/udp-socket-manager/socket"
	general_i "github.com/beka-birhanu/vinom-common/interfaces/general"
	socket_i "github.com/beka-birhanu/vinom-common/interfaces/socket"
	logger "github.com/beka-birhanu/vinom-common/log"
	"github.com/beka-birhanu/vinom-maze-sync/api"
	"github.com/beka-birhanu/vinom-maze-sync/compiler"
	"github.com/beka-birhanu/vinom-maze-sync/config"
	"github.com/beka-birhanu/vinom-maze-sync/seed"
	"github.com/beka-birhanu/vinom-maze-sync/service"
	"github.com/beka-birhanu/vinom-maze-sync/service/i"
	"github.com/beka-birhanu/vinom-maze-sync/syncproto"
	"github.com/spf13/pflag"
	"google.golang.org/grpc"
)

// Global variables for dependencies
var (
	appLogger        general_i.Logger
	paths            *config.Paths
	pool             *service.Pool
	bridge           *compiler.Bridge
	generator        *service.Generator
	relay            *service.Relay
	udpSocketManager socket_i.ServerSocketManager
	grpcServer       *grpc.Server
)

func newLogger(prefix, color string) general_i.Logger {
	l, err := logger.New(prefix, color, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating %s logger: %v", prefix, err))
		os.Exit(1)
	}
	return l
}

func initPool(ctx context.Context) {
	pool = service.NewPool(ctx, config.Envs.Workers, config.Envs.QueueSize, newLogger("POOL", config.ColorPurple))
	appLogger.Info("Generation pool initialized")
}

func initUDPSocketManager() {
	serverAddr, err := net.ResolveUDPAddr("udp", fmt.Sprintf("%s:%v", config.Envs.UdpHost, config.Envs.UdpPort))
	if err != nil {
		appLogger.Error(fmt.Sprintf("Resolving server address: %v", err))
		os.Exit(1)
	}

	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Generating RSA key: %v", err))
		os.Exit(1)
	}

	serverLogger, err := logger.New("SERVER-SOCKET", config.ColorBlue, os.Stdout)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating UDP socket manager logger: %v", err))
		os.Exit(1)
	}
	server, err := udpsocket.NewServerSocketManager(
		udpsocket.ServerConfig{
			ListenAddr:  serverAddr,
			AsymmCrypto: crypto.NewRSA(privateKey),
			SymmCrypto:  crypto.NewAESCBC(),
			Encoder:     &udppb.Protobuf{},
			HMAC:        &crypto.HMAC{},
			Logger:      serverLogger,
		},
		udpsocket.ServerWithReadBufferSize(config.Envs.UDPBufferSize),
		udpsocket.ServerWithHeartbeatExpiration(time.Duration(config.Envs.UDPHeartbeatExpiration)*time.Millisecond),
	)
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating server UDP socket manager: %v", err))
		os.Exit(1)
	}

	udpSocketManager = server
	appLogger.Info("UDP Socket Manager initialized")
}

func initRelay(outbox *syncproto.Outbox) {
	relay = service.NewRelay(&service.RelayConfig{
		Units:  outbox.Units,
		Logger: newLogger("RELAY", config.ColorYellow),
	})
	relay.Attach(udpSocketManager)
	appLogger.Info("Viewer relay initialized")
}

func initCompiler(role string) {
	compilerLogger := newLogger("COMPILER", config.ColorCyan)
	bridge = compiler.New(&compiler.Config{
		Paths:   paths,
		Connect: config.Envs.CompilerConnect,
		Logger:  compilerLogger,
		OnComplete: func(r compiler.Result) {
			if r.Err != nil {
				compilerLogger.Warning(fmt.Sprintf("%s compile of %s done with error: %s", role, r.MapName, r.Err))
			} else {
				compilerLogger.Info(fmt.Sprintf("%s compile of %s done", role, r.MapName))
			}
			if relay != nil {
				relay.CompileDone(r)
			}
		},
	})
	appLogger.Info("Compile bridge initialized")
}

func initGenerator(outbox *syncproto.Outbox, announce func([]string)) {
	gen, err := service.NewGenerator(&service.Config{
		Paths:    paths,
		Outbox:   outbox,
		Compiler: bridge,
		Pool:     pool,
		Announce: announce,
		Logger:   newLogger("GENERATOR", config.ColorGreen),
	})
	if err != nil {
		appLogger.Error(fmt.Sprintf("Creating generator: %v", err))
		os.Exit(1)
	}
	generator = gen
	appLogger.Info("Maze generator initialized")
}

func initMapSyncController() {
	grpcServer = grpc.NewServer()

	var viewers i.ViewerRelay
	if relay != nil {
		viewers = relay
	}
	if err := api.RegisterNewMapSyncServer(grpcServer, generator, viewers); err != nil {
		appLogger.Error(fmt.Sprintf("Creating and Registering map sync controller: %v", err))
		os.Exit(1)
	}
	appLogger.Info("Map sync controller initialized")
}

func runHost(ctx context.Context, addr string, info seed.Info) error {
	outbox := syncproto.NewOutbox()

	var announce func([]string)
	if config.Envs.UdpPort > 0 {
		initUDPSocketManager()
		initRelay(outbox)
		announce = relay.Announce
	}
	initCompiler("host")
	initGenerator(outbox, announce)
	initMapSyncController()

	if udpSocketManager != nil {
		go udpSocketManager.Serve()
		defer udpSocketManager.Stop()
		appLogger.Info("UDP Socket Manager started serving")
	}

	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening tcp: %w", err)
	}

	_ = generator.Submit(info)

	go func() {
		<-ctx.Done()
		grpcServer.GracefulStop()
	}()

	appLogger.Info(fmt.Sprintf("Serving gRPC at: %s", addr))
	if err := grpcServer.Serve(lis); err != nil {
		return fmt.Errorf("serving gRPC: %w", err)
	}
	return nil
}

func runRemote(ctx context.Context, addr string) error {
	initCompiler("remote")
	initGenerator(nil, nil)

	reassembler, err := syncproto.NewReassembler(&syncproto.Config{
		Logger:        newLogger("SYNC", config.ColorYellow),
		OnSeed:        func(info seed.Info) { _ = generator.Submit(info) },
		SurfaceErrors: config.Envs.SurfaceDecodeErrors,
	})
	if err != nil {
		return err
	}

	client, err := api.Dial(addr)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	appLogger.Info(fmt.Sprintf("Requesting map data from: %s", addr))
	return client.SyncMapWhenReady(ctx, reassembler, api.DefaultBackoff)
}

func main() {
	appLogger, _ = logger.New("APP", config.ColorGreen, os.Stdout)

	var role, addr, seedHex string
	flagSet := pflag.NewFlagSet("vinom-maze-sync", pflag.ContinueOnError)
	flagSet.StringVar(&role, "role", "host", "host generates and serves the maze, remote fetches and rebuilds it")
	flagSet.StringVar(&addr, "addr", config.Envs.GrpcAddr, "gRPC address to serve on (host) or dial (remote)")
	flagSet.StringVar(&seedHex, "seed", "", "hex encoded 32 byte seed for the first host maze (default: random)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return
		}
		appLogger.Error(fmt.Sprintf("Parsing flags: %v", err))
		os.Exit(1)
	}

	info := seed.Info{}
	if seedHex != "" {
		s, err := seed.Parse(seedHex)
		if err != nil {
			appLogger.Error(fmt.Sprintf("Parsing seed: %v", err))
			os.Exit(1)
		}
		info = seed.New(s)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	paths = config.NewPaths(config.Envs)
	initPool(ctx)

	var err error
	switch role {
	case "host":
		err = runHost(ctx, addr, info)
	case "remote":
		err = runRemote(ctx, addr)
	default:
		err = fmt.Errorf("unknown role %q", role)
	}

	// Let queued generations write their maps and started compiles finish.
	_ = pool.Stop()
	if bridge != nil {
		bridge.Wait()
	}

	if err != nil {
		appLogger.Error(err.Error())
		os.Exit(1)
	}
}
