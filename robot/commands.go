package robot

import "strings"

const (
	CommandBatteryVoltage = "bat_voltage"
	CommandParamSet       = "param_set"
	CommandParamGet       = "param_get"
	CommandParamList      = "param_list"
	CommandPause          = "pause"
	CommandResume         = "resume"
)

func paramKey(class, name string) string {
	return class + "." + name
}

func paramSetCommand(class, name, value string) string {
	return strings.Join([]string{CommandParamSet, paramKey(class, name), value}, " ")
}

func paramGetCommand(class, name string) string {
	return CommandParamGet + " " + paramKey(class, name)
}
