package envvar

const (
	// Port is the environment variable used to determine the HTTP port.
	Port = "PORT"

	// ChatterboxEnv is the environment variable used to determine the environment.
	ChatterboxEnv = "CHATTERBOX_ENV"

	// ChatterboxDevice is the environment variable used to force the compute device (auto, accelerator, cpu).
	ChatterboxDevice = "CHATTERBOX_DEVICE"

	// ChatterboxModelsPath is the environment variable used to determine the models directory.
	ChatterboxModelsPath = "CHATTERBOX_MODELS_PATH"

	// ChatterboxGRPCPort is the environment variable used to determine the gRPC health port.
	ChatterboxGRPCPort = "CHATTERBOX_GRPC_PORT"

	// ChatterboxLogFile is the environment variable used to enable file logging.
	ChatterboxLogFile = "CHATTERBOX_LOG_FILE"

	// CUDAVisibleDevices restricts which accelerators the model worker can see.
	CUDAVisibleDevices = "CUDA_VISIBLE_DEVICES"
)
