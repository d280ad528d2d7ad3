// Package backend implements the external collaborators the core consumes:
// token minting, the voice session registry, the presence writer, the
// transmit-authority record and the multiplexed console-action endpoint.
// The in-memory implementation backs local operation and tests; a remote
// deployment substitutes its own implementations of the same contracts.
package backend

import "voicenet/contract"

const (
	ActionRecordVoiceTelemetry      contract.ConsoleAction = "record_voice_telemetry"
	ActionSetVoiceDisciplineMode    contract.ConsoleAction = "set_voice_discipline_mode"
	ActionRequestToSpeak            contract.ConsoleAction = "request_to_speak"
	ActionResolveSpeakRequest       contract.ConsoleAction = "resolve_speak_request"
	ActionSetVoiceOutputProfile     contract.ConsoleAction = "set_voice_output_profile"
	ActionSetVoiceSubmixProfile     contract.ConsoleAction = "set_voice_submix_profile"
	ActionIssuePriorityCallout      contract.ConsoleAction = "issue_priority_callout"
	ActionSyncOpVoiceTextPresence   contract.ConsoleAction = "sync_op_voice_text_presence"
	ActionAppendRadioLogEntry       contract.ConsoleAction = "append_radio_log_entry"
	ActionListRadioLog              contract.ConsoleAction = "list_radio_log"
	ActionCaptureVoiceClip          contract.ConsoleAction = "capture_voice_clip"
	ActionGenerateStructuredDraft   contract.ConsoleAction = "generate_voice_structured_draft"
	ActionSendCommandWhisper        contract.ConsoleAction = "send_command_whisper"
	ActionAcknowledgeCommandWhisper contract.ConsoleAction = "acknowledge_command_whisper"
	ActionSetVoiceSecureMode        contract.ConsoleAction = "set_voice_secure_mode"
	ActionLinkVoiceThread           contract.ConsoleAction = "link_voice_thread"
	ActionSetVoiceHotkeyProfile     contract.ConsoleAction = "set_voice_hotkey_profile"
	ActionSetVoiceLoadout           contract.ConsoleAction = "set_voice_loadout"
)
