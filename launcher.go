//go:build ignore

// Запуск сервера и сборка CLI для локальной проверки: go run launcher.go
package main

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"
)

func main() {
	fmt.Println("Запуск сервера опросов...")

	clientName := "polls"
	if runtime.GOOS == "windows" {
		clientName = "polls.exe"
	}
	// сервер на фоне
	server := exec.Command("go", "run", "./cmd/server")
	server.Stdout = os.Stdout
	server.Stderr = os.Stderr

	if err := server.Start(); err != nil {
		fmt.Printf("Ошибка запуска сервера: %v\n", err)
		return
	}

	time.Sleep(3 * time.Second)
	// собираем клиента
	if _, err := os.Stat(clientName); os.IsNotExist(err) {
		fmt.Println("Сборка клиента...")
		build := exec.Command("go", "build", "-o", clientName, "./cmd/polls")
		build.Stdout = os.Stdout
		build.Stderr = os.Stderr
		if err := build.Run(); err != nil {
			fmt.Printf("Ошибка сборки клиента: %v\n", err)
			_ = server.Process.Kill()
			return
		}
		if runtime.GOOS != "windows" {
			_ = os.Chmod(clientName, 0755)
		}
	}

	fmt.Println("Сервер запущен")
	if runtime.GOOS == "windows" {
		fmt.Println("Данный терминал не закрывай. Открой новый и запускай: .\\polls.exe signin --email ...")
	} else {
		fmt.Println("Данный терминал не закрывай. Открой новый и запускай: ./polls signin --email ...")
	}

	_ = server.Wait()
}
