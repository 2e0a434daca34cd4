package application

// Spoken announcements.
const (
	MsgWelcome            = "Welcome to VisionaryAI. Now describing your surroundings."
	MsgCameraOpened       = "Camera opened. Now describing your surroundings."
	MsgCameraClosed       = "Camera closed. Stopped describing."
	MsgCameraFailed       = "Could not open the camera."
	MsgAudioDisabled      = "Audio disabled"
	MsgAudioEnabled       = "Audio enabled"
	MsgDescribingNow      = "Describing now..."
	MsgOpenCameraFirst    = "Please open the camera first."
	MsgProcessingError    = "Error processing image. Please try again."
	MsgMicrophoneDenied   = "Microphone access denied. Please allow microphone access."
	MsgRecognitionMissing = "Speech recognition is not supported on this device."
	MsgVoiceStartFailed   = "Failed to start voice commands. Please restart the assistant."
	MsgReady              = `VisionaryAI ready. Say "open camera" to begin.`
)
