package main

import (
	"context"

	"github.com/nadirsultanli/order-management-system-sub008/cmd"
)

func main() {
	cmd.Execute(context.Background())
}
