package domain

// Event names emitted to a user's channel
const (
	EventWebRTCOffer        = "webrtc_offer"
	EventWebRTCAnswer       = "webrtc_answer"
	EventWebRTCICECandidate = "webrtc_ice_candidate"
	EventIncomingCall       = "incoming_call"
	EventCallAnswered       = "call_answered"
	EventCallEnded          = "call_ended"
	EventUserStatusUpdate   = "user_status_update"
	EventUserConnected      = "user_connected"
	EventUserDisconnected   = "user_disconnected"
	EventNewMessage         = "new_message"
)
