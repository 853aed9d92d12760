package embedded

import (
	_ "embed"
)

// Embed all prompt data files
//
//go:embed data/prompts/engineer_prompt.txt
var EngineerPromptTxt []byte

//go:embed data/prompts/producer_prompt.txt
var ProducerPromptTxt []byte
