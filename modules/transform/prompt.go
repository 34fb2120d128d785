package transform

// BaseInstruction - 모든 스타일 프롬프트 앞에 붙는 기본 지시문 (원본 구도 보존)
const BaseInstruction = "IMPORTANT: Preserve the original photo's composition, subject positions, facial features, and overall layout exactly. Only change the artistic style and visual rendering technique."

const instructionSeparator = "\n"

// ComposeInstruction - 기본 지시문 + 줄바꿈 + 스타일 지시문
func ComposeInstruction(styleInstruction string) string {
	return BaseInstruction + instructionSeparator + styleInstruction
}
