package jack

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/jacklang/n2t/pkg/utils"
)

//go:embed stdlib.json
var stdlibSource string

// rawDataType/rawArgument/rawSubroutine/rawClass mirror stdlib.json's shape, only
// exported fields survive 'encoding/json', while 'jack.Class'/'jack.Subroutine' carry
// unexported bookkeeping (inside 'utils.OrderedMap') that json.Unmarshal can't reach.
type rawDataType struct {
	Main    string `json:"main"`
	Subtype string `json:"subtype"`
}

type rawArgument struct {
	Name     string      `json:"name"`
	DataType rawDataType `json:"dataType"`
}

type rawSubroutine struct {
	Name      string        `json:"name"`
	Type      string        `json:"type"`
	Return    rawDataType   `json:"return"`
	Arguments []rawArgument `json:"arguments"`
}

type rawClass struct {
	Subroutines []rawSubroutine `json:"subroutines"`
}

// StandardLibraryABI holds the ABI-only class definitions (signatures, no statement
// bodies) for the Jack standard library, this lets the Lowerer/TypeChecker resolve
// calls into 'Math', 'String', 'Array', 'Output', 'Screen', 'Keyboard', 'Memory' and
// 'Sys' without requiring their Jack (or emulated OS-level) sources to be present.
var StandardLibraryABI = map[string]Class{}

func init() {
	raw := map[string]rawClass{}
	if err := json.Unmarshal([]byte(stdlibSource), &raw); err != nil {
		panic(fmt.Sprintf("jack: malformed embedded stdlib.json: %s", err))
	}

	for className, rawDef := range raw {
		class := Class{Name: className, Subroutines: utils.OrderedMap[string, Subroutine]{}}

		for _, rawSub := range rawDef.Subroutines {
			qualifiedName := fmt.Sprintf("%s.%s", className, rawSub.Name)

			arguments := utils.OrderedMap[string, Variable]{}
			for _, rawArg := range rawSub.Arguments {
				arguments.Set(rawArg.Name, Variable{
					Name: rawArg.Name, VarType: Parameter,
					DataType: DataType{Main: DataTypeKind(rawArg.DataType.Main), Subtype: rawArg.DataType.Subtype},
				})
			}

			// Keyed by the bare name, matching how the Lowerer/TypeChecker resolve
			// 'expression.FuncName' lookups against 'Class.Subroutines'.
			class.Subroutines.Set(rawSub.Name, Subroutine{
				Name: qualifiedName, Type: SubroutineType(rawSub.Type),
				Return:    DataType{Main: DataTypeKind(rawSub.Return.Main), Subtype: rawSub.Return.Subtype},
				Arguments: arguments,
			})
		}

		StandardLibraryABI[className] = class
	}
}
