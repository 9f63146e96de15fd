package landmark

// Edge connects two landmark indices of a skeleton.
type Edge [2]int

// HandEdges are the bone connections of a 21-point hand.
var HandEdges = []Edge{
	{int(Wrist), int(ThumbCMC)}, {int(ThumbCMC), int(ThumbMCP)}, {int(ThumbMCP), int(ThumbIP)}, {int(ThumbIP), int(ThumbTip)},
	{int(Wrist), int(IndexMCP)}, {int(IndexMCP), int(IndexPIP)}, {int(IndexPIP), int(IndexDIP)}, {int(IndexDIP), int(IndexTip)},
	{int(IndexMCP), int(MiddleMCP)}, {int(MiddleMCP), int(MiddlePIP)}, {int(MiddlePIP), int(MiddleDIP)}, {int(MiddleDIP), int(MiddleTip)},
	{int(MiddleMCP), int(RingMCP)}, {int(RingMCP), int(RingPIP)}, {int(RingPIP), int(RingDIP)}, {int(RingDIP), int(RingTip)},
	{int(RingMCP), int(PinkyMCP)}, {int(PinkyMCP), int(PinkyPIP)}, {int(PinkyPIP), int(PinkyDIP)}, {int(PinkyDIP), int(PinkyTip)},
	{int(Wrist), int(PinkyMCP)},
}

// BodyEdges are the bone connections of a 33-point pose.
var BodyEdges = []Edge{
	{int(LeftShoulder), int(RightShoulder)},
	{int(LeftShoulder), int(LeftElbow)}, {int(LeftElbow), int(LeftWrist)},
	{int(RightShoulder), int(RightElbow)}, {int(RightElbow), int(RightWrist)},
	{int(LeftWrist), int(LeftIndex)}, {int(LeftWrist), int(LeftPinky)}, {int(LeftWrist), int(LeftThumb)},
	{int(RightWrist), int(RightIndex)}, {int(RightWrist), int(RightPinky)}, {int(RightWrist), int(RightThumb)},
	{int(LeftShoulder), int(LeftHip)}, {int(RightShoulder), int(RightHip)}, {int(LeftHip), int(RightHip)},
	{int(LeftHip), int(LeftKnee)}, {int(LeftKnee), int(LeftAnkle)}, {int(LeftAnkle), int(LeftHeel)}, {int(LeftHeel), int(LeftFootIndex)},
	{int(RightHip), int(RightKnee)}, {int(RightKnee), int(RightAnkle)}, {int(RightAnkle), int(RightHeel)}, {int(RightHeel), int(RightFootIndex)},
	{int(Nose), int(LeftEyeInner)}, {int(LeftEyeInner), int(LeftEye)}, {int(LeftEye), int(LeftEyeOuter)}, {int(LeftEyeOuter), int(LeftEar)},
	{int(Nose), int(RightEyeInner)}, {int(RightEyeInner), int(RightEye)}, {int(RightEye), int(RightEyeOuter)}, {int(RightEyeOuter), int(RightEar)},
	{int(MouthLeft), int(MouthRight)},
}

// Edges returns the skeleton connections for kind.
func (k Kind) Edges() []Edge {
	switch k {
	case Hand:
		return HandEdges
	case Body:
		return BodyEdges
	}
	return nil
}
