package domain

// Command is the action a recognized transcript maps to.
type Command string

const (
	CommandOpenCamera  Command = "open_camera"
	CommandCloseCamera Command = "close_camera"
	CommandMute        Command = "mute_audio"
	CommandUnmute      Command = "unmute_audio"
	CommandDescribe    Command = "describe"
	CommandNone        Command = "none"
)
